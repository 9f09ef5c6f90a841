// Package aggregate folds extracted events into per-stream state for one
// analysis run.
package aggregate

import (
	"sort"

	"github.com/quiclab/streamscope/internal/extract"
)

// StreamRecord accumulates every observation made about one stream id,
// regardless of which input source produced it. The deadline, drop, and
// completion fact groups are independent; any subset may be populated.
type StreamRecord struct {
	ID uint64

	DeadlineMs *uint64
	Hard       *bool
	SetTime    *extract.Millis

	Completed      bool
	CompletionTime *extract.Millis

	BytesDropped  uint64
	BlockedEvents int
}

// GapEvent is one observed data drop, kept in arrival order for time-series
// rendering. The byte total is already folded into the stream record.
type GapEvent struct {
	StreamID     uint64
	BytesDropped uint64
	Time         extract.Millis
}

// DeadlineTraceEvent retains a deadline-related qlog payload verbatim for
// downstream inspection.
type DeadlineTraceEvent struct {
	Time    extract.Millis
	Type    string
	Payload string
}

// Aggregator owns the mutable per-run state: the record map and the two
// append-only event sequences. It is not safe for concurrent writers; callers
// that parse files in parallel must serialize Apply.
//
// Applying the same event twice double-counts the additive fields
// (BytesDropped, BlockedEvents): process each input file at most once per run.
type Aggregator struct {
	records map[uint64]*StreamRecord
	gaps    []GapEvent
	traces  []DeadlineTraceEvent
}

// New creates an empty aggregator for one analysis run.
func New() *Aggregator {
	return &Aggregator{
		records: make(map[uint64]*StreamRecord),
	}
}

// Apply folds one event into the run state.
func (a *Aggregator) Apply(ev extract.Event) {
	switch ev.Kind {
	case extract.KindDeadlineSet:
		a.applyDeadlineSet(ev)
	case extract.KindDrop:
		a.applyDrop(ev)
	case extract.KindCompleted:
		a.applyCompleted(ev)
	case extract.KindStreamBlocked:
		a.record(ev.StreamID).BlockedEvents++
	case extract.KindDeadlineTrace:
		a.traces = append(a.traces, DeadlineTraceEvent{
			Time:    ev.Time,
			Type:    ev.TraceType,
			Payload: ev.Payload,
		})
	}
}

// ApplyAll folds a file's event sequence in order.
func (a *Aggregator) ApplyAll(events []extract.Event) {
	for _, ev := range events {
		a.Apply(ev)
	}
}

// Last writer wins when a deadline is set twice for the same stream.
func (a *Aggregator) applyDeadlineSet(ev extract.Event) {
	rec := a.record(ev.StreamID)
	deadline := ev.DeadlineMs
	hard := ev.Hard
	setTime := ev.Time
	rec.DeadlineMs = &deadline
	rec.Hard = &hard
	rec.SetTime = &setTime
}

func (a *Aggregator) applyDrop(ev extract.Event) {
	rec := a.record(ev.StreamID)
	rec.BytesDropped += ev.Bytes
	a.gaps = append(a.gaps, GapEvent{
		StreamID:     ev.StreamID,
		BytesDropped: ev.Bytes,
		Time:         ev.Time,
	})
}

func (a *Aggregator) applyCompleted(ev extract.Event) {
	rec := a.record(ev.StreamID)
	rec.Completed = true
	completion := ev.Time
	rec.CompletionTime = &completion
}

// record returns the stream's record, creating it lazily on first reference.
func (a *Aggregator) record(id uint64) *StreamRecord {
	rec, ok := a.records[id]
	if !ok {
		rec = &StreamRecord{ID: id}
		a.records[id] = rec
	}
	return rec
}

// Records returns all stream records sorted by ascending stream id.
func (a *Aggregator) Records() []*StreamRecord {
	out := make([]*StreamRecord, 0, len(a.records))
	for _, rec := range a.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Record returns the record for one stream id, or nil if never observed.
func (a *Aggregator) Record(id uint64) *StreamRecord {
	return a.records[id]
}

// Gaps returns the ordered gap-event sequence.
func (a *Aggregator) Gaps() []GapEvent {
	return a.gaps
}

// Traces returns the ordered deadline-trace sequence.
func (a *Aggregator) Traces() []DeadlineTraceEvent {
	return a.traces
}
