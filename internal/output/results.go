package output

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/quiclab/streamscope/internal/metrics"
)

var resultsHeader = []string{
	"run_id",
	"timestamp",
	"test_name",
	"total_streams",
	"streams_with_deadlines",
	"deadlines_met",
	"deadline_compliance_rate",
	"avg_deadline_margin_ms",
	"total_bytes_dropped",
	"gap_events",
	"completed_streams",
	"completion_rate",
}

// AppendResults appends one summary row to the shared results CSV, creating
// the file with a header row if it does not exist yet. A sibling .lock file
// guards against concurrent analysis runs appending at the same time. The
// generated run id is returned so callers can correlate report artifacts.
func AppendResults(path, testName string, s metrics.Summary) (string, error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking results file %s: %w", path, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening results file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat results file %s: %w", path, err)
	}

	now := time.Now()
	runID := ulid.MustNew(ulid.Timestamp(now), rand.New(rand.NewSource(now.UnixNano()))).String()

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(resultsHeader); err != nil {
			return "", fmt.Errorf("writing results header: %w", err)
		}
	}

	row := []string{
		runID,
		now.UTC().Format(time.RFC3339),
		testName,
		strconv.Itoa(s.TotalStreams),
		strconv.Itoa(s.StreamsWithDeadlines),
		strconv.Itoa(s.DeadlinesMet),
		strconv.FormatFloat(s.ComplianceRate, 'f', 4, 64),
		strconv.FormatFloat(s.AvgDeadlineMarginMs, 'f', 1, 64),
		strconv.FormatUint(s.TotalBytesDropped, 10),
		strconv.Itoa(s.GapEvents),
		strconv.Itoa(s.CompletedStreams),
		strconv.FormatFloat(s.CompletionRate, 'f', 4, 64),
	}
	if err := w.Write(row); err != nil {
		return "", fmt.Errorf("writing results row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing results file %s: %w", path, err)
	}
	return runID, nil
}
