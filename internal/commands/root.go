// Package commands implements the budget CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/budget-dashboard/cmd/api"
	"github.com/FACorreiaa/budget-dashboard/pkg/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "budget",
		Short: "Import bank statements into your budget dashboard",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newImportCommand(),
		newServeCommand(),
		newWatchCommand(),
		newPresetsCommand(),
		newSummaryCommand(),
		newExportCommand(),
		newSuggestCommand(),
	)

	return rootCmd
}

// loadDependencies reads configuration and wires the application. Short-lived
// commands log warnings only unless LOG_LEVEL is set.
func loadDependencies(longRunning bool, overrides ...func(*config.Config)) (*api.Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !longRunning && os.Getenv("LOG_LEVEL") == "" {
		cfg.Observability.LogLevel = "warn"
	}
	for _, o := range overrides {
		o(cfg)
	}
	return api.InitDependencies(cfg, cfg.Observability.NewLogger())
}
