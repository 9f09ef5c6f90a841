package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quiclab/streamscope/internal/aggregate"
	"github.com/quiclab/streamscope/internal/extract"
	"github.com/quiclab/streamscope/internal/metrics"
)

// PrintReport outputs the human-readable analysis report: summary counts,
// compliance, drops, completion, then a per-stream table sorted by ascending
// stream id. It only formats values already computed; nothing is recalculated
// here, so output is stable and diffable for identical input.
func PrintReport(w io.Writer, records []*aggregate.StreamRecord, s metrics.Summary) {
	fmt.Fprintln(w, "\n--- Deadline Stream Analysis ---")
	fmt.Fprintf(w, "Total Streams:        %d\n", s.TotalStreams)
	fmt.Fprintf(w, "Streams w/ Deadlines: %d (%d hard, %d soft)\n",
		s.StreamsWithDeadlines, s.HardDeadlines, s.SoftDeadlines)

	fmt.Fprintln(w, "\nCompliance:")
	fmt.Fprintf(w, "  Deadlines Met:      %d of %d\n", s.DeadlinesMet, s.StreamsWithDeadlines)
	fmt.Fprintf(w, "  Compliance Rate:    %.1f%%\n", s.ComplianceRate*100)
	fmt.Fprintf(w, "  Avg Margin:         %.1f ms\n", s.AvgDeadlineMarginMs)
	if s.DeadlinesMet > 0 {
		fmt.Fprintf(w, "  Margin P50/P90/P99: %.1f / %.1f / %.1f ms\n",
			s.MarginP50Ms, s.MarginP90Ms, s.MarginP99Ms)
	}

	fmt.Fprintln(w, "\nDrops:")
	fmt.Fprintf(w, "  Streams with Drops: %d\n", s.StreamsWithDrops)
	fmt.Fprintf(w, "  Bytes Dropped:      %s\n", groupThousands(s.TotalBytesDropped))
	fmt.Fprintf(w, "  Gap Events:         %d\n", s.GapEvents)
	fmt.Fprintf(w, "  Blocked Events:     %d\n", s.BlockedEvents)

	fmt.Fprintln(w, "\nCompletion:")
	fmt.Fprintf(w, "  Completed Streams:  %d\n", s.CompletedStreams)
	fmt.Fprintf(w, "  Completion Rate:    %.1f%%\n", s.CompletionRate*100)

	if len(records) > 0 {
		fmt.Fprintln(w, "\nPer-Stream Detail:")
		fmt.Fprintf(w, "  %6s  %-15s  %8s  %8s  %12s  %7s\n",
			"Stream", "Deadline", "Set At", "Done At", "Dropped", "Blocked")
		for _, rec := range records {
			fmt.Fprintf(w, "  %6d  %-15s  %8s  %8s  %12s  %7d\n",
				rec.ID,
				deadlineCell(rec),
				clockCell(rec.SetTime),
				completionCell(rec),
				groupThousands(rec.BytesDropped),
				rec.BlockedEvents,
			)
		}
	}
}

// PrintJSONReport outputs the summary as indented JSON.
func PrintJSONReport(w io.Writer, s metrics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// PrintYAMLReport outputs the summary as YAML.
func PrintYAMLReport(w io.Writer, s metrics.Summary) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}

func deadlineCell(rec *aggregate.StreamRecord) string {
	if rec.DeadlineMs == nil {
		return "-"
	}
	tag := "soft"
	if rec.Hard != nil && *rec.Hard {
		tag = "hard"
	}
	return fmt.Sprintf("%d ms (%s)", *rec.DeadlineMs, tag)
}

func clockCell(t *extract.Millis) string {
	if t == nil {
		return "-"
	}
	return t.Clock()
}

func completionCell(rec *aggregate.StreamRecord) string {
	if !rec.Completed {
		return "-"
	}
	return clockCell(rec.CompletionTime)
}

// groupThousands renders an integer with comma grouping (1234567 ->
// "1,234,567"). Display-only; no locale handling.
func groupThousands(n uint64) string {
	digits := strconv.FormatUint(n, 10)
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
