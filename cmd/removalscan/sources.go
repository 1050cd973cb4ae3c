package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewSourcesCmd creates the sources command.
func NewSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered sources",
		Long: `List every registered source in collection order, including sources added
or disabled by the sources file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg, setupLogger(cmd, cfg))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tENABLED\tENDPOINT")
			for _, sc := range registry.List() {
				kind := "-"
				if sc.Adapter != nil {
					kind = sc.Adapter.Name()
				}
				enabled := "no"
				if sc.Enabled {
					enabled = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sc.Name, kind, enabled, sc.Endpoint)
			}
			return tw.Flush()
		},
	}
}
