package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/removalscan/internal/model"
	"github.com/nao1215/removalscan/internal/source"
)

// RunConcurrent collects up to the configured number of sources at once.
// A shared limiter admits one fetch per delay interval, so the overall
// request rate matches the sequential mode. Results are assembled in source
// order regardless of completion order.
func (o *Orchestrator) RunConcurrent(ctx context.Context, sources []source.SourceConfig) *Result {
	o.logger.Info("starting concurrent collection",
		"sources", len(sources),
		"concurrency", o.concurrency,
	)
	start := time.Now()

	limit := rate.Inf
	if o.delay > 0 {
		limit = rate.Every(o.delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	// Pre-allocated so each goroutine owns its slot.
	records := make([][]model.Record, len(sources))
	runs := make([]model.SourceRun, len(sources))

	// The group context is not used for cancellation between sources:
	// goroutines never return errors, one failure must not stop the rest.
	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, sc := range sources {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				runs[i] = model.SourceRun{Name: sc.Name, Error: fmt.Sprintf("%v: %v", ErrSkipped, err)}
				o.metrics.ObserveSource(runs[i])
				return nil
			}
			records[i], runs[i] = o.collectOne(ctx, sc)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines always return nil

	res := &Result{
		Records: make([]model.Record, 0),
		Sources: runs,
	}
	for _, rs := range records {
		res.Records = append(res.Records, rs...)
	}

	o.logger.Info("concurrent collection complete",
		"sources", len(sources),
		"records", len(res.Records),
		"failed", res.Failed(),
		"elapsed", time.Since(start),
	)
	return res
}
