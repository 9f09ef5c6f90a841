// Package metrics computes aggregate deadline-compliance statistics over a
// finalized set of stream records.
//
// [Compute] is a pure function: it runs once after all inputs have been
// folded into the aggregator and produces a [Summary] value with no identity
// and no further mutation. Every rate in the Summary is division-by-zero
// guarded with an explicit zero fallback.
//
// A stream counts toward DeadlinesMet only when its set and completion
// timestamps are both present and the completion did not precede the set
// time; records missing either side are undecidable and excluded from the
// compliance check entirely.
package metrics
