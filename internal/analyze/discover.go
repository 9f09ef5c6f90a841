// Package analyze discovers input files and drives event extraction into a
// single aggregated view of the run.
package analyze

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// Source identifies which extractor handles an input file.
type Source string

const (
	SourceLog  Source = "log"
	SourceQlog Source = "qlog"
)

// Input is one file scheduled for extraction.
type Input struct {
	Path   string
	Source Source
}

// ErrNoInput is returned when discovery finds no files to analyze.
var ErrNoInput = errors.New("nothing to analyze: no matching input files found")

// Discover collects input files from the configured directories. Log files
// match *.log under logDir; trace files match *.qlog and *.json under qlogDir.
// Either directory may be empty. Results are sorted by path so repeated runs
// ingest files in the same order.
func Discover(logDir, qlogDir string) ([]Input, error) {
	var inputs []Input

	if logDir != "" {
		paths, err := filepath.Glob(filepath.Join(logDir, "*.log"))
		if err != nil {
			return nil, fmt.Errorf("scanning log directory %s: %w", logDir, err)
		}
		for _, p := range paths {
			inputs = append(inputs, Input{Path: p, Source: SourceLog})
		}
	}

	if qlogDir != "" {
		for _, pattern := range []string{"*.qlog", "*.json"} {
			paths, err := filepath.Glob(filepath.Join(qlogDir, pattern))
			if err != nil {
				return nil, fmt.Errorf("scanning qlog directory %s: %w", qlogDir, err)
			}
			for _, p := range paths {
				inputs = append(inputs, Input{Path: p, Source: SourceQlog})
			}
		}
	}

	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Path < inputs[j].Path })
	return inputs, nil
}
