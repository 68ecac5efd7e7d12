package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <description>",
		Short: "Show which category a description would land in",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDependencies(false)
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			desc := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if rule, ok := deps.Ledger.Classifier().Explain(desc); ok {
				fmt.Fprintf(out, "%s: matches %q\n", rule.CategoryID, rule.Keyword)
			} else {
				fmt.Fprintln(out, "no rule matches, it would be filed as other")
			}

			if deps.Search == nil {
				return nil
			}
			suggestions, err := deps.Search.Suggest(desc, limit)
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Fprintf(out, "  %-16s %s (%.2f)\n", s.CategoryID, s.Name, s.Score)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 3, "number of related categories to show")

	return cmd
}
