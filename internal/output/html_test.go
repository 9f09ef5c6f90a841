package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quiclab/streamscope/internal/aggregate"
	"github.com/quiclab/streamscope/internal/metrics"
)

func TestGenerateHTMLTimeline(t *testing.T) {
	records := sampleRecords()
	gaps := []aggregate.GapEvent{
		{StreamID: 4, BytesDropped: 1000, Time: 100},
		{StreamID: 4, BytesDropped: 500, Time: 200},
	}
	s := metrics.Compute(records, gaps)

	var buf bytes.Buffer
	if err := GenerateHTMLTimeline(&buf, records, gaps, s); err != nil {
		t.Fatalf("GenerateHTMLTimeline failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Streamscope Deadline Analysis",
		"Compliance Rate",
		"gap-chart",
		"Per-Stream Breakdown",
		"bytes_dropped",
		"uPlot",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q", want)
		}
	}
}

func TestGenerateHTMLTimelineNoGaps(t *testing.T) {
	records := sampleRecords()
	s := metrics.Compute(records, nil)

	var buf bytes.Buffer
	if err := GenerateHTMLTimeline(&buf, records, nil, s); err != nil {
		t.Fatalf("GenerateHTMLTimeline failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "No drop gaps observed") {
		t.Error("expected no-data placeholder without gap events")
	}
	if strings.Contains(out, "gap-chart") {
		t.Error("chart container should be omitted without gap events")
	}
}

func TestGenerateHTMLTimelineEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateHTMLTimeline(&buf, nil, nil, metrics.Summary{}); err != nil {
		t.Fatalf("GenerateHTMLTimeline failed on empty input: %v", err)
	}
	if strings.Contains(buf.String(), "Per-Stream Breakdown") {
		t.Error("per-stream table should be omitted with no records")
	}
}
