package extract

import "fmt"

// Kind identifies one of the closed set of observations an extractor can emit.
type Kind int

const (
	// KindDeadlineSet records a deadline being established on a stream.
	KindDeadlineSet Kind = iota
	// KindDrop records bytes dropped from a stream after deadline expiry.
	KindDrop
	// KindCompleted records a stream finishing delivery.
	KindCompleted
	// KindStreamBlocked records a stream_data_blocked trace event.
	KindStreamBlocked
	// KindDeadlineTrace carries a verbatim deadline-related trace payload.
	KindDeadlineTrace
)

func (k Kind) String() string {
	switch k {
	case KindDeadlineSet:
		return "deadline_set"
	case KindDrop:
		return "drop"
	case KindCompleted:
		return "completed"
	case KindStreamBlocked:
		return "stream_blocked"
	case KindDeadlineTrace:
		return "deadline_trace"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a single typed observation produced by either extractor.
// Only the fields relevant to the Kind are populated.
type Event struct {
	Kind     Kind
	StreamID uint64
	Time     Millis

	// KindDeadlineSet
	DeadlineMs uint64
	Hard       bool

	// KindDrop
	Bytes uint64

	// KindDeadlineTrace
	TraceType string
	Payload   string
}
