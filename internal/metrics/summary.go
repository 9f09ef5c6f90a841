package metrics

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/quiclab/streamscope/internal/aggregate"
)

// Summary is the aggregate metrics value computed once per analysis run.
type Summary struct {
	TotalStreams         int `json:"total_streams" yaml:"total_streams"`
	StreamsWithDeadlines int `json:"streams_with_deadlines" yaml:"streams_with_deadlines"`
	HardDeadlines        int `json:"hard_deadlines" yaml:"hard_deadlines"`
	SoftDeadlines        int `json:"soft_deadlines" yaml:"soft_deadlines"`

	DeadlinesMet        int     `json:"deadlines_met" yaml:"deadlines_met"`
	ComplianceRate      float64 `json:"deadline_compliance_rate" yaml:"deadline_compliance_rate"`
	AvgDeadlineMarginMs float64 `json:"avg_deadline_margin_ms" yaml:"avg_deadline_margin_ms"`
	MarginP50Ms         float64 `json:"margin_p50_ms" yaml:"margin_p50_ms"`
	MarginP90Ms         float64 `json:"margin_p90_ms" yaml:"margin_p90_ms"`
	MarginP99Ms         float64 `json:"margin_p99_ms" yaml:"margin_p99_ms"`

	StreamsWithDrops  int    `json:"streams_with_drops" yaml:"streams_with_drops"`
	TotalBytesDropped uint64 `json:"total_bytes_dropped" yaml:"total_bytes_dropped"`
	GapEvents         int    `json:"gap_events" yaml:"gap_events"`
	BlockedEvents     int    `json:"blocked_events" yaml:"blocked_events"`

	CompletedStreams int     `json:"completed_streams" yaml:"completed_streams"`
	CompletionRate   float64 `json:"completion_rate" yaml:"completion_rate"`
}

// Compute derives the Summary from the finalized record set and gap sequence.
func Compute(records []*aggregate.StreamRecord, gaps []aggregate.GapEvent) Summary {
	s := Summary{
		TotalStreams: len(records),
		GapEvents:    len(gaps),
	}

	// Track margins from 1ms up to 1h with 3 significant figures.
	margins := hdrhistogram.New(1, 3_600_000, 3)
	var marginSum float64

	for _, rec := range records {
		if rec.DeadlineMs != nil {
			s.StreamsWithDeadlines++
			if rec.Hard != nil && *rec.Hard {
				s.HardDeadlines++
			} else {
				s.SoftDeadlines++
			}
		}

		if rec.BytesDropped > 0 {
			s.StreamsWithDrops++
		}
		s.TotalBytesDropped += rec.BytesDropped
		s.BlockedEvents += rec.BlockedEvents

		if rec.Completed {
			s.CompletedStreams++
		}

		if margin, ok := deadlineMargin(rec); ok {
			s.DeadlinesMet++
			marginSum += float64(margin)
			v := margin
			if v < margins.LowestTrackableValue() {
				v = margins.LowestTrackableValue()
			}
			if v > margins.HighestTrackableValue() {
				v = margins.HighestTrackableValue()
			}
			_ = margins.RecordValue(v)
		}
	}

	if s.DeadlinesMet > 0 {
		s.AvgDeadlineMarginMs = marginSum / float64(s.DeadlinesMet)
	}
	if margins.TotalCount() > 0 {
		s.MarginP50Ms = float64(margins.ValueAtQuantile(50))
		s.MarginP90Ms = float64(margins.ValueAtQuantile(90))
		s.MarginP99Ms = float64(margins.ValueAtQuantile(99))
	}
	if s.StreamsWithDeadlines > 0 {
		s.ComplianceRate = float64(s.DeadlinesMet) / float64(s.StreamsWithDeadlines)
	}
	if s.TotalStreams > 0 {
		s.CompletionRate = float64(s.CompletedStreams) / float64(s.TotalStreams)
	}

	return s
}

// deadlineMargin reports whether the record met its deadline and, if so, the
// slack in milliseconds. A record missing either timestamp, or whose
// completion precedes its set time (sentinel clocks from different files),
// has no decidable duration and is excluded.
func deadlineMargin(rec *aggregate.StreamRecord) (int64, bool) {
	if rec.DeadlineMs == nil || rec.SetTime == nil || rec.CompletionTime == nil {
		return 0, false
	}
	duration := int64(*rec.CompletionTime) - int64(*rec.SetTime)
	if duration < 0 {
		return 0, false
	}
	if uint64(duration) > *rec.DeadlineMs {
		return 0, false
	}
	return int64(*rec.DeadlineMs) - duration, true
}
