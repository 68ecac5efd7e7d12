package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	importservice "github.com/FACorreiaa/budget-dashboard/internal/domain/import/service"
	"github.com/FACorreiaa/budget-dashboard/pkg/config"
)

func newImportCommand() *cobra.Command {
	var (
		bank          string
		yes           bool
		rulesFile     string
		alwaysConfirm bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import CSV or Excel bank statements",
		Long: `Import CSV or Excel bank statements into the ledger.

Files whose columns are recognised are imported straight away. Otherwise the
columns are shown and you pick your bank or assign them by hand.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDependencies(false, func(cfg *config.Config) {
				if rulesFile != "" {
					cfg.Import.RulesFile = rulesFile
				}
				if alwaysConfirm {
					cfg.Import.AlwaysConfirm = true
				}
			})
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			resolver := newPromptResolver(cmd.InOrStdin(), cmd.OutOrStdout(), deps.Registry, bank, yes)
			out := cmd.OutOrStdout()

			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					failed++
					continue
				}

				res, err := deps.ImportService.Import(cmd.Context(), filepath.Base(path), data, resolver)
				if err != nil {
					fmt.Fprintf(out, "%s: %s\n", path, importservice.NoticeFor(err).Message)
					if !errors.Is(err, importservice.ErrCancelled) {
						failed++
					}
					continue
				}

				fmt.Fprintf(out, "%s: %s\n", path, res.Notice.Message)
				if res.Dropped > 0 {
					fmt.Fprintf(out, "  skipped %d rows without a description\n", res.Dropped)
				}
				if res.AmountFailures > 0 {
					fmt.Fprintf(out, "  %d amounts could not be read and were stored as 0.00\n", res.AmountFailures)
				}
				if res.Undated > 0 {
					fmt.Fprintf(out, "  %d rows have no readable date\n", res.Undated)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to import", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "bank layout to apply when columns need confirmation (key or name)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "import without asking once --bank completes the mapping")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML file with keyword rules checked before stored rules")
	cmd.Flags().BoolVar(&alwaysConfirm, "confirm", false, "always review the column mapping")

	return cmd
}
