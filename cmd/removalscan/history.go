package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past update runs",
		Long: `History lists recent update runs with their totals. With a run id it shows
the per-source results of that run.

Examples:
  # List the last 10 runs
  removalscan history

  # Show which sources failed in run 42
  removalscan history 42`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of runs to list (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd, cfg)

	db, err := database.Open(cfg.HistoryDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("no run history yet: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		run, err := db.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Run #%d  %s  (%s)\n", run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
		fmt.Fprintf(out, "Collected %d, added %d, total %d\n\n", run.Collected, run.Added, run.Total)
		fmt.Fprintln(tw, "SOURCE\tRECORDS\tDURATION\tERROR")
		for _, s := range run.Sources {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", s.Name, s.Records, s.Duration, s.Error)
		}
		return tw.Flush()
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintln(tw, "ID\tSTARTED\tCOLLECTED\tADDED\tTOTAL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", r.ID,
			r.StartedAt.Local().Format(time.DateTime), r.Collected, r.Added, r.Total)
	}
	return tw.Flush()
}
