package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for removalscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "removalscan",
		Short: "Collect and publish records of third-country removals",
		Long: `removalscan collects reports of third-country removals from public web
sources, normalizes them into a common record shape, and merges them into an
append-only JSON dataset. The dataset can be validated, exported as JSON,
CSV, Markdown or text, and served over a read-only HTTP API.

Settings are read from defaults, then REMOVALSCAN_* environment variables
(a .env file is loaded if present), then command-line flags. Sources can be
added or disabled in a .removalscan.yaml file (see "removalscan init").`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("store", "s", "",
		"Dataset file path (default: removals.json in the XDG data directory)")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Sources file path (default: .removalscan.yaml in current or home directory)")
	cmd.PersistentFlags().String("history-dir", "",
		"Run history directory (default: the XDG data directory)")
	cmd.PersistentFlags().String("env-file", ".env", "Environment file to load")

	cmd.AddCommand(NewUpdateCmd())
	cmd.AddCommand(NewSourcesCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
