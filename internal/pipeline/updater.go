package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/removalscan/internal/model"
	"github.com/nao1215/removalscan/internal/source"
	"github.com/nao1215/removalscan/internal/store"
)

// Store is the persistence the Updater merges into.
type Store interface {
	Update(ctx context.Context, fn func(existing []model.Record) ([]model.Record, error)) error
}

// HistoryRecorder saves a summary of each run.
type HistoryRecorder interface {
	SaveRun(ctx context.Context, run *model.Run) (int64, error)
}

// UpdateSummary reports the outcome of one update.
type UpdateSummary struct {
	// Collected is the number of records returned by all sources.
	Collected int
	// Added is the number of records that were new to the store.
	Added int
	// Total is the size of the store after the merge.
	Total int
	// Failed is the number of sources that contributed nothing because of
	// an error.
	Failed int
	// Sources holds the per-source outcome.
	Sources []model.SourceRun
	// RunID is the history id of the run, zero when history is disabled
	// or could not be written.
	RunID int64
}

// Updater runs a collection pass and merges the result into a store.
type Updater struct {
	orch    *Orchestrator
	store   Store
	history HistoryRecorder
	metrics Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithHistory records every run in h.
func WithHistory(h HistoryRecorder) UpdaterOption {
	return func(u *Updater) {
		u.history = h
	}
}

// WithUpdaterLogger sets the logger.
func WithUpdaterLogger(logger *slog.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = logger
	}
}

// WithRunMetrics sets the recorder notified after each run.
func WithRunMetrics(r Recorder) UpdaterOption {
	return func(u *Updater) {
		u.metrics = r
	}
}

// WithUpdaterClock sets the clock used for run timestamps.
func WithUpdaterClock(now func() time.Time) UpdaterOption {
	return func(u *Updater) {
		u.now = now
	}
}

// NewUpdater creates an Updater.
func NewUpdater(orch *Orchestrator, st Store, opts ...UpdaterOption) *Updater {
	u := &Updater{
		orch:  orch,
		store: st,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	if u.metrics == nil {
		u.metrics = nopRecorder{}
	}
	return u
}

// Update collects the sources and merges the records into the store.
// Source failures are reported in the summary; only store errors are
// returned.
func (u *Updater) Update(ctx context.Context, sources []source.SourceConfig) (*UpdateSummary, error) {
	startedAt := u.now()
	u.logger.Info("starting update", "sources", len(sources))

	res := u.orch.Collect(ctx, sources)

	summary := &UpdateSummary{
		Collected: len(res.Records),
		Failed:    res.Failed(),
		Sources:   res.Sources,
	}

	err := u.store.Update(ctx, func(existing []model.Record) ([]model.Record, error) {
		merged, added := store.Merge(existing, res.Records)
		summary.Added = added
		summary.Total = len(merged)
		return merged, nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating store: %w", err)
	}

	run := &model.Run{
		StartedAt:  startedAt.UTC(),
		FinishedAt: u.now().UTC(),
		Collected:  summary.Collected,
		Added:      summary.Added,
		Total:      summary.Total,
		Sources:    summary.Sources,
	}
	u.metrics.ObserveRun(*run)

	if u.history != nil {
		id, err := u.history.SaveRun(ctx, run)
		if err != nil {
			u.logger.Warn("failed to save run history", "error", err)
		} else {
			summary.RunID = id
		}
	}

	u.logger.Info("update complete",
		"collected", summary.Collected,
		"added", summary.Added,
		"total", summary.Total,
		"failed_sources", summary.Failed,
	)
	return summary, nil
}
