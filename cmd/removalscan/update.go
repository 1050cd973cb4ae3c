package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/config"
	"github.com/nao1215/removalscan/internal/database"
	"github.com/nao1215/removalscan/internal/metrics"
	"github.com/nao1215/removalscan/internal/pipeline"
)

// NewUpdateCmd creates the update command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Collect all enabled sources and merge new records into the dataset",
		Long: `Update fetches every enabled source in registration order, waiting a fixed
delay between sources, and appends records that are not yet in the dataset.

A source that fails (network error, timeout, changed page layout) contributes
no records; the remaining sources still run. Existing entries are never
modified, so running update twice in a row adds nothing the second time.

Examples:
  # Update the default dataset
  removalscan update

  # Only run two sources, without the pause between them
  removalscan update --source hard_g_history --source amnesty_usa --delay 0

  # Write Prometheus metrics for the node exporter textfile collector
  removalscan update --metrics-file /var/lib/node_exporter/removalscan.prom`,
		Args: cobra.NoArgs,
		RunE: runUpdateCmd,
	}

	cmd.Flags().Duration("delay", config.DefaultDelay, "Pause between sources")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each fetch")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of sources collected at once (requests stay rate limited by --delay)")
	cmd.Flags().StringSlice("source", nil, "Only collect the named sources (repeatable)")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")

	return cmd
}

// updateOptions are the update command's own flags.
type updateOptions struct {
	sources   []string
	noHistory bool
}

func runUpdateCmd(cmd *cobra.Command, _ []string) error {
	cfg, opts, err := buildUpdateConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return runUpdate(ctx, cmd.OutOrStdout(), cfg, opts, logger)
}

func buildUpdateConfig(cmd *cobra.Command) (*config.Config, *updateOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("delay") {
		if cfg.Delay, err = cmd.Flags().GetDuration("delay"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("concurrency") {
		if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return nil, nil, err
		}
	}
	if cfg.MetricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return nil, nil, err
	}

	opts := &updateOptions{}
	if opts.sources, err = cmd.Flags().GetStringSlice("source"); err != nil {
		return nil, nil, err
	}
	if opts.noHistory, err = cmd.Flags().GetBool("no-history"); err != nil {
		return nil, nil, err
	}
	return cfg, opts, nil
}

func runUpdate(ctx context.Context, out io.Writer, cfg *config.Config, opts *updateOptions, logger *slog.Logger) error {
	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	sources, err := selectSources(registry, opts.sources)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	orch := pipeline.NewOrchestrator(
		pipeline.WithDelay(cfg.Delay),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
	)

	updaterOpts := []pipeline.UpdaterOption{
		pipeline.WithUpdaterLogger(logger),
		pipeline.WithRunMetrics(m),
	}
	if !opts.noHistory && cfg.HistoryDir != "" {
		db, err := database.Open(cfg.HistoryDir, database.DefaultOptions())
		if err != nil {
			// History is a side record; the update still runs without it.
			logger.Warn("history disabled", "error", err)
		} else {
			defer db.Close()
			updaterOpts = append(updaterOpts, pipeline.WithHistory(db))
		}
	}

	fmt.Fprintf(out, "Collecting %d sources...\n", len(sources))
	start := time.Now()

	summary, err := pipeline.NewUpdater(orch, st, updaterOpts...).Update(ctx, sources)
	if err != nil {
		return err
	}

	printUpdateSummary(out, summary, time.Since(start))

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

func printUpdateSummary(out io.Writer, s *pipeline.UpdateSummary, elapsed time.Duration) {
	for _, src := range s.Sources {
		if src.Failed() {
			fmt.Fprintf(out, "  %-20s FAILED  %s\n", src.Name, src.Error)
			continue
		}
		fmt.Fprintf(out, "  %-20s %4d records\n", src.Name, src.Records)
	}
	fmt.Fprintf(out, "\nCollected %d records from %d sources (%d failed) in %s\n",
		s.Collected, len(s.Sources), s.Failed, elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Added %d new records; dataset now has %d records\n", s.Added, s.Total)
	if s.RunID != 0 {
		fmt.Fprintf(out, "Recorded as run #%d\n", s.RunID)
	}
}
