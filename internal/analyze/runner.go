package analyze

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/quiclab/streamscope/internal/aggregate"
	"github.com/quiclab/streamscope/internal/extract"
	"github.com/quiclab/streamscope/internal/tracing"
)

// Options configures an ingest run.
type Options struct {
	// Parallelism bounds how many files are parsed concurrently. Values
	// below 1 are treated as 1.
	Parallelism int
	// Tracer records one span per ingested file. Nil means no tracing.
	Tracer trace.Tracer
}

// FileError records a file that could not be ingested. The run continues
// past individual file failures.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Runner parses input files and folds their events into one aggregator.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	if opt.Parallelism < 1 {
		opt.Parallelism = 1
	}
	if opt.Tracer == nil {
		opt.Tracer = noop.NewTracerProvider().Tracer("streamscope")
	}
	return &Runner{opt: opt}
}

// Run ingests all inputs and returns the aggregated state together with any
// per-file failures. Event application is serialized under a mutex; per-stream
// results do not depend on which file a worker picked up first, since events
// for one stream come from one source file.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*aggregate.Aggregator, []FileError) {
	agg := aggregate.New()

	var mu sync.Mutex
	var failures []FileError

	jobs := make(chan Input)
	go func() {
		defer close(jobs)
		for _, in := range inputs {
			select {
			case jobs <- in:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(r.opt.Parallelism)
	for i := 0; i < r.opt.Parallelism; i++ {
		go func() {
			defer wg.Done()
			for in := range jobs {
				events, err := r.ingestFile(ctx, in)
				mu.Lock()
				if err != nil {
					failures = append(failures, FileError{Path: in.Path, Err: err})
				} else {
					agg.ApplyAll(events)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return agg, failures
}

func (r *Runner) ingestFile(ctx context.Context, in Input) ([]extract.Event, error) {
	_, span := tracing.StartFileSpan(ctx, r.opt.Tracer, string(in.Source), in.Path)

	var events []extract.Event
	var err error
	switch in.Source {
	case SourceQlog:
		events, err = extract.ParseQlogFile(in.Path)
	default:
		events, err = extract.ScanLogFile(in.Path)
	}

	tracing.EndSpan(span, err)
	return events, err
}
