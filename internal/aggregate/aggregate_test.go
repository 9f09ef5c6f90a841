package aggregate

import (
	"testing"

	"github.com/quiclab/streamscope/internal/extract"
)

func deadlineSet(id, ms uint64, hard bool, t extract.Millis) extract.Event {
	return extract.Event{Kind: extract.KindDeadlineSet, StreamID: id, DeadlineMs: ms, Hard: hard, Time: t}
}

func drop(id, bytes uint64, t extract.Millis) extract.Event {
	return extract.Event{Kind: extract.KindDrop, StreamID: id, Bytes: bytes, Time: t}
}

func TestDeadlineSetCreatesRecord(t *testing.T) {
	agg := New()
	agg.Apply(deadlineSet(4, 100, true, 1000))

	rec := agg.Record(4)
	if rec == nil {
		t.Fatal("expected record for stream 4")
	}
	if rec.DeadlineMs == nil || *rec.DeadlineMs != 100 {
		t.Errorf("expected deadline 100, got %v", rec.DeadlineMs)
	}
	if rec.Hard == nil || !*rec.Hard {
		t.Errorf("expected hard deadline")
	}
	if rec.SetTime == nil || *rec.SetTime != 1000 {
		t.Errorf("expected set time 1000, got %v", rec.SetTime)
	}
}

func TestDeadlineSetLastWriterWins(t *testing.T) {
	agg := New()
	agg.Apply(deadlineSet(4, 100, true, 1000))
	agg.Apply(deadlineSet(4, 250, false, 2000))

	rec := agg.Record(4)
	if *rec.DeadlineMs != 250 {
		t.Errorf("expected deadline 250, got %d", *rec.DeadlineMs)
	}
	if *rec.Hard {
		t.Errorf("expected soft deadline after overwrite")
	}
	if *rec.SetTime != 2000 {
		t.Errorf("expected set time 2000, got %d", *rec.SetTime)
	}
}

func TestDeadlineSetIdempotentForSamePayload(t *testing.T) {
	agg := New()
	agg.Apply(deadlineSet(4, 100, true, 1000))
	before := *agg.Record(4)
	agg.Apply(deadlineSet(4, 100, true, 1000))
	after := *agg.Record(4)

	if *before.DeadlineMs != *after.DeadlineMs || *before.Hard != *after.Hard || *before.SetTime != *after.SetTime {
		t.Errorf("reapplying identical DeadlineSet changed the record: %+v vs %+v", before, after)
	}
}

func TestDropAccumulates(t *testing.T) {
	agg := New()
	agg.Apply(drop(7, 100, 10))
	agg.Apply(drop(7, 200, 20))
	agg.Apply(drop(7, 50, 30))

	rec := agg.Record(7)
	if rec.BytesDropped != 350 {
		t.Errorf("expected 350 bytes dropped, got %d", rec.BytesDropped)
	}
	if len(agg.Gaps()) != 3 {
		t.Errorf("expected 3 gap events, got %d", len(agg.Gaps()))
	}
	if agg.Gaps()[1].BytesDropped != 200 {
		t.Errorf("expected second gap of 200 bytes, got %d", agg.Gaps()[1].BytesDropped)
	}
}

func TestDropDoubleCountsOnReplay(t *testing.T) {
	// Reprocessing a file double-counts additive fields; documented
	// constraint, not a guard.
	agg := New()
	agg.Apply(drop(7, 100, 10))
	agg.Apply(drop(7, 100, 10))

	if agg.Record(7).BytesDropped != 200 {
		t.Errorf("expected 200 bytes after replay, got %d", agg.Record(7).BytesDropped)
	}
}

func TestCompleted(t *testing.T) {
	agg := New()
	agg.Apply(extract.Event{Kind: extract.KindCompleted, StreamID: 4, Time: 3000})

	rec := agg.Record(4)
	if !rec.Completed {
		t.Errorf("expected completed")
	}
	if rec.CompletionTime == nil || *rec.CompletionTime != 3000 {
		t.Errorf("expected completion time 3000, got %v", rec.CompletionTime)
	}
}

func TestStreamBlockedIncrements(t *testing.T) {
	agg := New()
	agg.Apply(extract.Event{Kind: extract.KindStreamBlocked, StreamID: 4})
	agg.Apply(extract.Event{Kind: extract.KindStreamBlocked, StreamID: 4})

	if agg.Record(4).BlockedEvents != 2 {
		t.Errorf("expected 2 blocked events, got %d", agg.Record(4).BlockedEvents)
	}
}

func TestDeadlineTraceDoesNotTouchRecords(t *testing.T) {
	agg := New()
	agg.Apply(extract.Event{
		Kind:      extract.KindDeadlineTrace,
		Time:      500,
		TraceType: "deadline_expired",
		Payload:   `{"type":"deadline_expired","stream_id":4}`,
	})

	if len(agg.Records()) != 0 {
		t.Errorf("expected no stream records, got %d", len(agg.Records()))
	}
	if len(agg.Traces()) != 1 {
		t.Fatalf("expected 1 trace event, got %d", len(agg.Traces()))
	}
	if agg.Traces()[0].Type != "deadline_expired" {
		t.Errorf("unexpected trace type %q", agg.Traces()[0].Type)
	}
}

func TestRecordSharedAcrossSources(t *testing.T) {
	// Log-derived and trace-derived events for the same id land on the same
	// record.
	agg := New()
	agg.Apply(deadlineSet(4, 100, true, 1000))
	agg.Apply(extract.Event{Kind: extract.KindStreamBlocked, StreamID: 4})

	if len(agg.Records()) != 1 {
		t.Fatalf("expected a single shared record, got %d", len(agg.Records()))
	}
	rec := agg.Record(4)
	if rec.DeadlineMs == nil || rec.BlockedEvents != 1 {
		t.Errorf("expected both fact groups on one record: %+v", rec)
	}
}

func TestOrderIndependenceAcrossStreams(t *testing.T) {
	first := []extract.Event{deadlineSet(2, 100, true, 10), drop(2, 64, 20)}
	second := []extract.Event{deadlineSet(3, 200, false, 15), drop(3, 128, 25)}

	a := New()
	a.ApplyAll(first)
	a.ApplyAll(second)

	b := New()
	// Interleave the two disjoint streams.
	b.Apply(second[0])
	b.Apply(first[0])
	b.Apply(first[1])
	b.Apply(second[1])

	for _, id := range []uint64{2, 3} {
		ra, rb := a.Record(id), b.Record(id)
		if *ra.DeadlineMs != *rb.DeadlineMs || ra.BytesDropped != rb.BytesDropped {
			t.Errorf("stream %d diverged across interleavings: %+v vs %+v", id, ra, rb)
		}
	}
}

func TestRecordsSortedByID(t *testing.T) {
	agg := New()
	for _, id := range []uint64{12, 4, 8} {
		agg.Apply(extract.Event{Kind: extract.KindCompleted, StreamID: id})
	}

	recs := agg.Records()
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, want := range []uint64{4, 8, 12} {
		if recs[i].ID != want {
			t.Errorf("position %d: expected stream %d, got %d", i, want, recs[i].ID)
		}
	}
}
