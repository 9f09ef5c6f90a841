package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quiclab/streamscope/internal/metrics"
)

const e2eLog = `[10:00:00] Set deadline on stream 4: 100 ms (hard)
[10:00:00] Stream 4 completed
[10:00:01] Set deadline on stream 8: 50 ms (soft)
[10:00:01] Stream 8: Dropped 2048 bytes due to deadline
[10:00:03] Stream 8 completed
some unrelated log line
`

const e2eQlog = `{
  "traces": [
    {
      "events": [
        [500, "transport", "stream_data_blocked", {"type": "stream_data_blocked", "stream_id": "8"}]
      ]
    }
  ]
}`

func writeFixtures(t *testing.T) (logDir, qlogDir string) {
	t.Helper()
	logDir = t.TempDir()
	qlogDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(logDir, "transfer.log"), []byte(e2eLog), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(qlogDir, "trace.qlog"), []byte(e2eQlog), 0o644); err != nil {
		t.Fatal(err)
	}
	return logDir, qlogDir
}

func TestRunEndToEnd(t *testing.T) {
	logDir, qlogDir := writeFixtures(t)
	outDir := t.TempDir()
	reportPath := filepath.Join(outDir, "report.txt")
	timelinePath := filepath.Join(outDir, "timeline.html")
	resultsPath := filepath.Join(outDir, "results.csv")

	err := run([]string{
		"--log-dir", logDir,
		"--qlog-dir", qlogDir,
		"-o", reportPath,
		"--timeline", timelinePath,
		"--results-csv", resultsPath,
		"--test-name", "e2e",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	for _, want := range []string{
		"Total Streams:        2",
		"Streams w/ Deadlines: 2 (1 hard, 1 soft)",
		// Stream 4 met (0ms duration), stream 8 missed (2s > 50ms).
		"Deadlines Met:      1 of 2",
		"Compliance Rate:    50.0%",
		"Bytes Dropped:      2,048",
		"Blocked Events:     1",
	} {
		if !strings.Contains(string(report), want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}

	timeline, err := os.ReadFile(timelinePath)
	if err != nil {
		t.Fatalf("reading timeline: %v", err)
	}
	if !strings.Contains(string(timeline), "<!DOCTYPE html>") {
		t.Error("timeline is not an HTML document")
	}

	results, err := os.ReadFile(resultsPath)
	if err != nil {
		t.Fatalf("reading results CSV: %v", err)
	}
	if !strings.Contains(string(results), "e2e") {
		t.Error("results CSV missing test name")
	}
}

func TestRunJSONReport(t *testing.T) {
	logDir, _ := writeFixtures(t)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	err := run([]string{
		"--log-dir", logDir,
		"--format", "json",
		"-o", reportPath,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var s metrics.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if s.TotalStreams != 2 || s.DeadlinesMet != 1 {
		t.Errorf("summary wrong: %+v", s)
	}
}

func TestRunThresholdFailure(t *testing.T) {
	logDir, _ := writeFixtures(t)

	err := run([]string{
		"--log-dir", logDir,
		"-o", filepath.Join(t.TempDir(), "report.txt"),
		"--threshold", "deadline_compliance:rate >= 0.95",
	})
	if err == nil || !strings.Contains(err.Error(), "thresholds failed") {
		t.Errorf("expected threshold failure, got %v", err)
	}
}

func TestRunThresholdPass(t *testing.T) {
	logDir, _ := writeFixtures(t)

	err := run([]string{
		"--log-dir", logDir,
		"-o", filepath.Join(t.TempDir(), "report.txt"),
		"--threshold", "streams:count > 0",
		"--threshold", "completion:rate >= 0.9",
	})
	if err != nil {
		t.Errorf("run with passing thresholds failed: %v", err)
	}
}

func TestRunInvalidThresholdFailsEarly(t *testing.T) {
	logDir, _ := writeFixtures(t)

	err := run([]string{
		"--log-dir", logDir,
		"--threshold", "bogus expression",
	})
	if err == nil {
		t.Error("expected parse error for invalid threshold")
	}
}

func TestRunNoInputs(t *testing.T) {
	err := run([]string{"--log-dir", t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "nothing to analyze") {
		t.Errorf("expected no-input error, got %v", err)
	}
}

func TestRunReportsFileFailures(t *testing.T) {
	logDir, qlogDir := writeFixtures(t)
	if err := os.WriteFile(filepath.Join(qlogDir, "bad.qlog"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := run([]string{
		"--log-dir", logDir,
		"--qlog-dir", qlogDir,
		"-o", filepath.Join(t.TempDir(), "report.txt"),
	})
	if err == nil || !strings.Contains(err.Error(), "could not be analyzed") {
		t.Errorf("expected input failure error, got %v", err)
	}
}
