package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/quiclab/streamscope/internal/aggregate"
	"github.com/quiclab/streamscope/internal/analyze"
	"github.com/quiclab/streamscope/internal/config"
	"github.com/quiclab/streamscope/internal/metrics"
	"github.com/quiclab/streamscope/internal/output"
	"github.com/quiclab/streamscope/internal/threshold"
	"github.com/quiclab/streamscope/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Parse thresholds up front so a bad expression fails before any work.
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	inputs, err := analyze.Discover(cfg.LogDir, cfg.QlogDir)
	if err != nil {
		return err
	}

	runner := analyze.New(analyze.Options{
		Parallelism: cfg.Parallelism,
		Tracer:      provider.Tracer(),
	})
	agg, failures := runner.Run(ctx, inputs)
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "[streamscope] skipping input: %v\n", f)
	}

	records := agg.Records()
	gaps := sortedGaps(agg.Gaps())
	summary := metrics.Compute(records, gaps)

	if err := writeReport(cfg, records, summary); err != nil {
		return err
	}

	if cfg.TimelinePath != "" {
		if err := writeTimeline(cfg.TimelinePath, records, gaps, summary); err != nil {
			return err
		}
	}

	if cfg.ResultsCSV != "" {
		runID, err := output.AppendResults(cfg.ResultsCSV, cfg.TestName, summary)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[streamscope] results recorded: run %s\n", runID)
	}

	if len(thresholds) > 0 {
		results := threshold.NewEvaluator(thresholds).Evaluate(summary)
		failed := 0
		fmt.Fprintln(os.Stdout, "\nThresholds:")
		for _, r := range results {
			fmt.Fprintf(os.Stdout, "  %s\n", r.Message)
			if !r.Pass {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d input files could not be analyzed", len(failures))
	}
	return nil
}

// sortedGaps orders gap events by run clock, then stream id, so reports and
// timelines are stable regardless of ingest parallelism.
func sortedGaps(gaps []aggregate.GapEvent) []aggregate.GapEvent {
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Time != gaps[j].Time {
			return gaps[i].Time < gaps[j].Time
		}
		return gaps[i].StreamID < gaps[j].StreamID
	})
	return gaps
}

func writeReport(cfg *config.Config, records []*aggregate.StreamRecord, summary metrics.Summary) error {
	var w io.Writer = os.Stdout
	if cfg.ReportPath != "" {
		f, err := os.Create(cfg.ReportPath)
		if err != nil {
			return fmt.Errorf("creating report file %s: %w", cfg.ReportPath, err)
		}
		defer f.Close()
		w = f
	}

	switch cfg.Format {
	case config.FormatJSON:
		return output.PrintJSONReport(w, summary)
	case config.FormatYAML:
		return output.PrintYAMLReport(w, summary)
	default:
		output.PrintReport(w, records, summary)
		return nil
	}
}

func writeTimeline(path string, records []*aggregate.StreamRecord, gaps []aggregate.GapEvent, summary metrics.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating timeline file %s: %w", path, err)
	}
	defer f.Close()
	return output.GenerateHTMLTimeline(f, records, gaps, summary)
}
