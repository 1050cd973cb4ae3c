package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/validate"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a dataset file against the record schema",
		Long: `Validate checks that the dataset is an array of records with the required
fields, that dates are real calendar days in YYYY-MM-DD form, that counts are
integers or null, and that date ranges do not end before they start.

The file is never modified. The command exits non-zero when issues are found.

Examples:
  # Validate the default dataset
  removalscan validate

  # Validate another file and print the report as JSON
  removalscan validate --json data/removals.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidateCmd,
	}
	cmd.Flags().BoolP("json", "j", false, "Print the report as JSON")
	return cmd
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cmd, cfg)

	path := cfg.StorePath
	if len(args) == 1 {
		path = args[0]
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	v, err := validate.New()
	if err != nil {
		return err
	}
	report, err := v.ValidateFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "  %s\n", issue)
		}
		if report.Valid {
			fmt.Fprintf(out, "%s: %d entries, valid\n", path, report.Entries)
		} else {
			fmt.Fprintf(out, "%s: %d entries, %d issues\n", path, report.Entries, len(report.Issues))
		}
	}

	if !report.Valid {
		return errInvalidDataset
	}
	return nil
}
