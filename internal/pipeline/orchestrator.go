package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/removalscan/internal/model"
	"github.com/nao1215/removalscan/internal/source"
)

// DefaultDelay is the pause between two source fetches.
const DefaultDelay = time.Second

var (
	// ErrNoAdapter is recorded for a source registered without an adapter.
	ErrNoAdapter = errors.New("source has no adapter")
	// ErrAdapterPanic is recorded when an adapter panics during collection.
	ErrAdapterPanic = errors.New("adapter panicked")
	// ErrSkipped is recorded for sources not visited because the run was
	// cancelled.
	ErrSkipped = errors.New("skipped")
)

// Recorder receives per-source and per-run observations. The metrics
// package implements it.
type Recorder interface {
	ObserveSource(run model.SourceRun)
	ObserveRun(run model.Run)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSource(model.SourceRun) {}
func (nopRecorder) ObserveRun(model.Run)          {}

// Result is the output of one collection pass.
type Result struct {
	// Records holds the stamped records of all successful sources, in
	// source order.
	Records []model.Record
	// Sources holds one entry per source, in source order.
	Sources []model.SourceRun
}

// Failed returns the number of sources that failed or were skipped.
func (r *Result) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Orchestrator collects records from sources.
type Orchestrator struct {
	delay       time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
	metrics     Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelay sets the pause between source fetches. Negative values are
// ignored.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock sets the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithMetrics sets the recorder notified after each source.
func WithMetrics(r Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = r
	}
}

// WithConcurrency sets how many sources may be collected at once.
// One (the default) runs sources strictly one after another.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		delay:       DefaultDelay,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = nopRecorder{}
	}
	return o
}

// Collect runs the sources sequentially or concurrently depending on the
// configured concurrency.
func (o *Orchestrator) Collect(ctx context.Context, sources []source.SourceConfig) *Result {
	if o.concurrency > 1 {
		return o.RunConcurrent(ctx, sources)
	}
	return o.Run(ctx, sources)
}

// Run collects the sources one at a time in the given order, waiting the
// configured delay between them. It never returns an error: failures are
// reported per source in the result.
func (o *Orchestrator) Run(ctx context.Context, sources []source.SourceConfig) *Result {
	res := &Result{
		Records: make([]model.Record, 0),
		Sources: make([]model.SourceRun, 0, len(sources)),
	}

	for i, sc := range sources {
		if i > 0 {
			if err := sleep(ctx, o.delay); err != nil {
				o.skipRemaining(res, sources[i:], err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			o.skipRemaining(res, sources[i:], err)
			break
		}

		records, run := o.collectOne(ctx, sc)
		res.Records = append(res.Records, records...)
		res.Sources = append(res.Sources, run)
	}

	o.logger.Info("collection complete",
		"sources", len(sources),
		"records", len(res.Records),
		"failed", res.Failed(),
	)
	return res
}

// collectOne runs a single source with fault isolation.
func (o *Orchestrator) collectOne(ctx context.Context, sc source.SourceConfig) ([]model.Record, model.SourceRun) {
	o.logger.Info("collecting source", "source", sc.Name, "endpoint", sc.Endpoint)

	start := time.Now()
	raw, err := safeCollect(ctx, sc.Adapter)
	run := model.SourceRun{Name: sc.Name, Duration: time.Since(start)}

	if err != nil {
		run.Error = err.Error()
		o.logger.Warn("source failed",
			"source", sc.Name,
			"error", err,
			"duration", run.Duration,
		)
		o.metrics.ObserveSource(run)
		return nil, run
	}

	at := o.now()
	records := make([]model.Record, len(raw))
	for i, r := range raw {
		r.Stamp(sc.Name, at)
		records[i] = r
	}
	run.Records = len(records)

	o.logger.Info("source collected",
		"source", sc.Name,
		"records", run.Records,
		"duration", run.Duration,
	)
	o.metrics.ObserveSource(run)
	return records, run
}

func (o *Orchestrator) skipRemaining(res *Result, rest []source.SourceConfig, cause error) {
	o.logger.Warn("collection cancelled", "remaining", len(rest), "reason", cause)
	for _, sc := range rest {
		run := model.SourceRun{Name: sc.Name, Error: fmt.Sprintf("%v: %v", ErrSkipped, cause)}
		res.Sources = append(res.Sources, run)
		o.metrics.ObserveSource(run)
	}
}

// safeCollect calls the adapter and converts a panic into an error.
func safeCollect(ctx context.Context, a source.Adapter) (records []model.Record, err error) {
	if a == nil {
		return nil, ErrNoAdapter
	}
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("%w: %v", ErrAdapterPanic, r)
		}
	}()
	return a.Collect(ctx)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
