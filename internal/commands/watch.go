package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/budget-dashboard/pkg/cron"
)

func newWatchCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import statements dropped into the inbox directory",
		Long: `Watch the inbox directory (IMPORT_INBOX_DIR) and import new statements on
the IMPORT_INBOX_SCHEDULE schedule. Files that need their columns confirmed
stay in the inbox until imported with "budget import". Unreadable files are
moved to the rejected/ subdirectory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := loadDependencies(!once)
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			cfg := deps.Config.Import
			watcher := cron.NewScheduler(deps.ImportService, cfg.InboxDir, cfg.InboxSchedule, deps.Logger)

			if once {
				report, err := watcher.ScanInbox(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d files (%d transactions)\n", len(report.Imported), report.Transactions)
				for _, name := range report.Waiting {
					fmt.Fprintf(out, "  waiting for confirmation: %s\n", name)
				}
				for _, name := range report.Rejected {
					fmt.Fprintf(out, "  rejected: %s\n", name)
				}
				for _, name := range report.Failed {
					fmt.Fprintf(out, "  failed, will retry: %s\n", name)
				}
				return nil
			}

			if err := watcher.Start(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()
			<-watcher.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "scan the inbox once and exit")

	return cmd
}
