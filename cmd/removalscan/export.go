package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/config"
	"github.com/nao1215/removalscan/internal/report"
)

// formatAll selects every export format.
const formatAll = "all"

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dataset as JSON, CSV, Markdown or text",
		Long: `Export writes the dataset in one or all supported formats. Files are named
third_nation_removals_YYYYMMDD_HHMMSS.<ext> inside the export directory unless
--output is given.

Examples:
  # Write every format into ./exports
  removalscan export

  # Write a CSV file to a chosen path
  removalscan export --format csv -o removals.csv

  # Print Markdown to stdout
  removalscan export --format md -o -`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("format", "f", formatAll,
		"Export format: json, csv, md, txt or all")
	cmd.Flags().StringP("output", "o", "",
		`Output file path for a single format ("-" for stdout)`)
	cmd.Flags().StringP("dir", "d", config.DefaultExportDir, "Export directory")

	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd, cfg)
	if err := stringFlag(cmd, "dir", &cfg.ExportDir); err != nil {
		return err
	}

	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	records, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if strings.EqualFold(formatName, formatAll) {
		if output != "" {
			return errors.New("--output needs a single --format")
		}
		paths, err := report.ExportAll(cfg.ExportDir, records, time.Now())
		for _, p := range paths {
			fmt.Fprintf(out, "Exported %s\n", p)
		}
		return err
	}

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if output == "-" {
		w, err := report.NewWriter(format, out)
		if err != nil {
			return err
		}
		return w.Write(records)
	}
	if output == "" {
		output = report.DefaultFilename(cfg.ExportDir, format, time.Now())
	}
	if err := report.WriteFile(output, format, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %s (%d records)\n", output, len(records))
	return nil
}
