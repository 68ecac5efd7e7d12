package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/insights"
	"github.com/FACorreiaa/budget-dashboard/pkg/money"
)

func newSummaryCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, spending and budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := loadDependencies(false)
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			s := insights.Summarize(deps.Ledger.Transactions(), deps.Ledger.Categories(), money.DefaultCurrency)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			fmt.Fprintf(out, "Transactions: %d\n", s.TransactionCount)
			fmt.Fprintf(out, "Income:       %s\n", s.Income.Display())
			fmt.Fprintf(out, "Expenses:     %s\n", s.Expenses.Display())
			fmt.Fprintf(out, "Net:          %s\n", s.Net.Display())
			fmt.Fprintf(out, "Savings:      %s\n\n", s.Savings.Display())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tSPENT\tBUDGET\tUSED")
			for _, c := range s.Categories {
				used := c.Percent.StringFixed(0) + "%"
				if c.Over {
					used += " over by " + c.OverBy.Display()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Spent.Display(), c.Budget.Display(), used)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(s.Months) > 0 {
				fmt.Fprintln(out)
				tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSES\tSAVED")
				for _, m := range s.Months {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Label, m.Income.Display(), m.Expenses.Display(), m.RunningSavings.Display())
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if s.Undated > 0 {
				fmt.Fprintf(out, "\n%d transactions have no date and are left out of the monthly view.\n", s.Undated)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}
