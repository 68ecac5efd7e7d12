package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
)

func newExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every transaction as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := loadDependencies(false)
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			names := make(map[string]string)
			for _, c := range deps.Ledger.Categories() {
				names[c.ID] = c.Name
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := ledger.WriteCSV(w, deps.Ledger.Transactions(), names); err != nil {
				return fmt.Errorf("failed to export transactions: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")

	return cmd
}
