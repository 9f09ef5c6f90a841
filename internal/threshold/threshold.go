package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quiclab/streamscope/internal/metrics"
)

// Threshold represents a compliance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "deadline_compliance", "deadline_margin"
	Aggregate string  // e.g., "rate", "avg", "p99", "total", "count"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a computed summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided summary.
func (e *Evaluator) Evaluate(s metrics.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, s))
	}
	return results
}

func (e *Evaluator) evaluateOne(t Threshold, s metrics.Summary) Result {
	actual, err := extractMetricValue(t, s)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "deadline_compliance:rate >= 0.95"  (met / deadline-bearing streams)
// - "deadline_margin:avg > 10"          (mean slack in ms over met streams)
// - "deadline_margin:p99 > 0"           (margin percentile in ms)
// - "bytes_dropped:total < 1000000"     (cumulative dropped bytes)
// - "completion:rate >= 0.9"            (completed / total streams)
// - "streams:count > 0"                 (observed stream count)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	// Pattern: metric:aggregate operator value
	// e.g., "deadline_compliance:rate >= 0.95"
	pattern := regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'deadline_compliance:rate >= 0.95')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: deadline_compliance, deadline_margin, bytes_dropped, completion, streams)", metric)
	}

	if !isValidAggregate(aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: rate, avg, p50, p90, p99, total, count)", aggregate)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	valid := []string{"deadline_compliance", "deadline_margin", "bytes_dropped", "completion", "streams"}
	for _, v := range valid {
		if metric == v {
			return true
		}
	}
	return false
}

func isValidAggregate(aggregate string) bool {
	valid := []string{"rate", "avg", "p50", "p90", "p99", "total", "count"}
	for _, v := range valid {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, s metrics.Summary) (float64, error) {
	switch t.Metric {
	case "deadline_compliance":
		return extractComplianceMetric(t.Aggregate, s)
	case "deadline_margin":
		return extractMarginMetric(t.Aggregate, s)
	case "bytes_dropped":
		return extractDropMetric(t.Aggregate, s)
	case "completion":
		return extractCompletionMetric(t.Aggregate, s)
	case "streams":
		return extractStreamMetric(t.Aggregate, s)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractComplianceMetric(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "rate":
		return s.ComplianceRate, nil
	case "count":
		return float64(s.DeadlinesMet), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for deadline_compliance (use 'rate' or 'count')", aggregate)
	}
}

func extractMarginMetric(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "avg":
		return s.AvgDeadlineMarginMs, nil
	case "p50":
		return s.MarginP50Ms, nil
	case "p90":
		return s.MarginP90Ms, nil
	case "p99":
		return s.MarginP99Ms, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for deadline_margin (use 'avg', 'p50', 'p90' or 'p99')", aggregate)
	}
}

func extractDropMetric(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "total":
		return float64(s.TotalBytesDropped), nil
	case "count":
		return float64(s.StreamsWithDrops), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for bytes_dropped (use 'total' or 'count')", aggregate)
	}
}

func extractCompletionMetric(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "rate":
		return s.CompletionRate, nil
	case "count":
		return float64(s.CompletedStreams), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for completion (use 'rate' or 'count')", aggregate)
	}
}

func extractStreamMetric(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "count":
		return float64(s.TotalStreams), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for streams (use 'count')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
