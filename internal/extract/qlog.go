package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// TraceEvent is the fixed {time, data} envelope one positional qlog tuple is
// converted into at the parse boundary. The rest of the system never sees the
// source format's positional encoding.
type TraceEvent struct {
	Time Millis
	Data gjson.Result
}

// ParseQlogFile reads and parses one qlog trace document. A malformed or
// unreadable document is a recoverable error for that file: the caller gets
// the path and cause, and zero events.
func ParseQlogFile(path string) ([]Event, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening qlog file %s: %w", path, err)
	}

	events, err := ParseQlog(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return events, nil
}

// ParseQlog extracts deadline-related events from a qlog document of shape
// {"traces": [{"events": [[time, ..., eventData], ...]}]}. Only the first
// trace group is read.
func ParseQlog(data []byte) ([]Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	tuples := gjson.GetBytes(data, "traces.0.events")
	if !tuples.Exists() || !tuples.IsArray() {
		return nil, fmt.Errorf("missing traces[0].events")
	}

	var events []Event
	for _, tuple := range tuples.Array() {
		env, ok := envelope(tuple)
		if !ok {
			continue
		}

		evType := env.Data.Get("type").String()

		if strings.Contains(strings.ToLower(evType), "deadline") {
			events = append(events, Event{
				Kind:      KindDeadlineTrace,
				Time:      env.Time,
				TraceType: evType,
				Payload:   env.Data.Raw,
			})
		}

		if evType == "stream_data_blocked" {
			if id := env.Data.Get("stream_id"); id.Exists() {
				events = append(events, Event{
					Kind:     KindStreamBlocked,
					StreamID: id.Uint(),
					Time:     env.Time,
				})
			}
		}
	}
	return events, nil
}

// envelope converts one positional tuple [time, ..., data] into a TraceEvent.
// Tuples without a leading time and trailing object are skipped.
func envelope(tuple gjson.Result) (TraceEvent, bool) {
	if !tuple.IsArray() {
		return TraceEvent{}, false
	}
	parts := tuple.Array()
	if len(parts) < 2 {
		return TraceEvent{}, false
	}
	data := parts[len(parts)-1]
	if !data.IsObject() {
		return TraceEvent{}, false
	}
	return TraceEvent{
		Time: Millis(parts[0].Int()),
		Data: data,
	}, true
}
