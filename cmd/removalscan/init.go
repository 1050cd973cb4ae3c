package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/removalscan/internal/config"
)

//go:embed templates/removalscan.yaml
var configTemplate embed.FS

// configFileName is the default sources file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sources file",
		Long: `Init creates a .removalscan.yaml sources file in the current directory.

The generated file documents how to:
- Disable built-in sources
- Narrow a source to part of its page
- Add new sources with custom patterns

Examples:
  # Create .removalscan.yaml in current directory
  removalscan init

  # Create the file at a specific path
  removalscan init -o ~/.config/removalscan/config.yaml

  # Force overwrite existing file
  removalscan init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the sources file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing sources file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("sources file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/removalscan.yaml")
	if err != nil {
		return fmt.Errorf("failed to read sources template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write sources file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created sources file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to:")
	fmt.Fprintln(out, "  - Disable or narrow built-in sources")
	fmt.Fprintln(out, "  - Add sources with custom patterns")
	fmt.Fprintln(out, "  - Set request headers and the user agent")

	return nil
}
