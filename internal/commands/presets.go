package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in bank layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tTYPE\tLAYOUT")
			for _, p := range preset.DefaultRegistry().List() {
				layout := "header row"
				if !p.HasHeader {
					layout = fmt.Sprintf("no header, %d columns", p.ColumnCount)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Key, p.Name, p.Label, layout)
			}
			return tw.Flush()
		},
	}
}
