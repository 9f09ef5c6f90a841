package extract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// The three recognized line grammars emitted by the deadline-aware client.
// The patterns are disjoint, so a line matches at most one kind.
var (
	deadlineSetLine = regexp.MustCompile(`Set deadline on stream (\d+): (\d+) ms \((hard|soft)\)`)
	dropLine        = regexp.MustCompile(`Stream (\d+): Dropped (\d+) bytes due to deadline`)
	completedLine   = regexp.MustCompile(`Stream (\d+) completed`)
)

// ScanLogFile reads one client log file and returns the typed events found in
// it, in line order. An unreadable file fails as a whole; no partial events
// are returned.
func ScanLogFile(path string) ([]Event, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	defer f.Close()

	events, err := ScanLog(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return events, nil
}

// ScanLog tokenizes a line stream into events. Lines matching none of the
// known grammars are skipped; operational logs are mixed-content by nature.
func ScanLog(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size

	var events []Event
	for scanner.Scan() {
		if ev, ok := classifyLine(scanner.Text()); ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// classifyLine maps a raw line onto the closed set of line kinds. Each
// emitted event carries the line's clock token, or the sentinel when absent.
func classifyLine(line string) (Event, bool) {
	ts := ClockFromLine(line)

	if m := deadlineSetLine.FindStringSubmatch(line); m != nil {
		id, _ := strconv.ParseUint(m[1], 10, 64)
		ms, _ := strconv.ParseUint(m[2], 10, 64)
		return Event{
			Kind:       KindDeadlineSet,
			StreamID:   id,
			DeadlineMs: ms,
			Hard:       m[3] == "hard",
			Time:       ts,
		}, true
	}

	if m := dropLine.FindStringSubmatch(line); m != nil {
		id, _ := strconv.ParseUint(m[1], 10, 64)
		bytes, _ := strconv.ParseUint(m[2], 10, 64)
		return Event{
			Kind:     KindDrop,
			StreamID: id,
			Bytes:    bytes,
			Time:     ts,
		}, true
	}

	if m := completedLine.FindStringSubmatch(line); m != nil {
		id, _ := strconv.ParseUint(m[1], 10, 64)
		return Event{
			Kind:     KindCompleted,
			StreamID: id,
			Time:     ts,
		}, true
	}

	return Event{}, false
}
