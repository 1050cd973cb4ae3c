package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/api"
	"github.com/nao1215/removalscan/internal/metrics"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset over a read-only HTTP API",
		Long: `Serve starts an HTTP server exposing the dataset:

  GET /api/v1/removals                    all records with metadata
  GET /api/v1/removals/summary            aggregate statistics
  GET /api/v1/removals/country/{country}  records for one destination
  GET /healthz                            liveness
  GET /metrics                            Prometheus metrics

The dataset is re-read on every request, so updates are visible without a
restart.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address (default 127.0.0.1:8080)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := stringFlag(cmd, "listen", &cfg.ListenAddr); err != nil {
		return err
	}
	logger := setupLogger(cmd, cfg)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	srv := api.New(st, api.WithLogger(logger), api.WithMetrics(metrics.New()))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.StorePath, cfg.ListenAddr)
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}
