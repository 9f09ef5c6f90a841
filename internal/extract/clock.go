package extract

import (
	"fmt"
	"regexp"
	"strconv"
)

// Millis is the canonical timestamp representation: integer milliseconds on
// the run clock. Clock-style tokens from log lines are converted here at the
// extraction boundary; nothing downstream compares timestamp strings.
type Millis int64

// SentinelTime is substituted when a matched log line carries no clock token.
const SentinelTime Millis = 0

var clockToken = regexp.MustCompile(`\[(\d{2}):(\d{2}):(\d{2})\]`)

// ClockFromLine extracts an optional bracketed HH:MM:SS token from anywhere
// in the line. Lines without a token get the sentinel.
func ClockFromLine(line string) Millis {
	m := clockToken.FindStringSubmatch(line)
	if m == nil {
		return SentinelTime
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	return Millis(((h*3600 + mi*60 + s) * 1000))
}

// Clock renders the timestamp back as HH:MM:SS for display.
func (m Millis) Clock() string {
	if m < 0 {
		m = 0
	}
	total := int64(m) / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
