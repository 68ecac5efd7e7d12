// Package insights computes dashboard summaries over the ledger.
package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/budget-dashboard/pkg/money"
)

// MonthsShown is how many calendar months Summary.Months keeps.
const MonthsShown = 6

// Summary is the dashboard overview.
type Summary struct {
	Income   *money.Money `json:"income"`
	Expenses *money.Money `json:"expenses"` // positive magnitude of all outflows
	Net      *money.Money `json:"net"`
	// Savings is the outflow into savings-type categories.
	Savings *money.Money `json:"savings"`

	Categories []CategorySpend `json:"categories"`
	Months     []MonthTotal    `json:"months"`

	TransactionCount int `json:"transactionCount"`
	// Undated counts transactions left out of Months.
	Undated int `json:"undated"`
}

// CategorySpend is spending against one expense category's budget.
type CategorySpend struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Color   string          `json:"color"`
	Spent   *money.Money    `json:"spent"`
	Budget  *money.Money    `json:"budget"`
	Percent decimal.Decimal `json:"percent"` // of budget, capped at 100
	Over    bool            `json:"over"`
	OverBy  *money.Money    `json:"overBy,omitempty"`
}

// MonthTotal is one calendar month of activity.
type MonthTotal struct {
	Month    string       `json:"month"` // 2026-01
	Label    string       `json:"label"` // Jan 26
	Income   *money.Money `json:"income"`
	Expenses *money.Money `json:"expenses"`
	// RunningSavings is income minus expenses accumulated over the months
	// shown, floored at zero.
	RunningSavings *money.Money `json:"runningSavings"`
}

// Summarize totals txs in currency. Expense categories appear in catalog order
// when they have spending or a budget.
func Summarize(txs []ledger.Transaction, categories []categorization.Category, currency string) Summary {
	s := Summary{
		Income:           money.Zero(currency),
		Expenses:         money.Zero(currency),
		Savings:          money.Zero(currency),
		TransactionCount: len(txs),
	}

	types := make(map[string]categorization.CategoryType, len(categories))
	for _, c := range categories {
		types[c.ID] = c.Type
	}

	spent := make(map[string]*money.Money)
	months := make(map[string]*MonthTotal)

	for _, tx := range txs {
		amt := money.NewFromDecimal(tx.Amount, currency)

		if amt.IsPositive() {
			s.Income = s.Income.MustAdd(amt)
		} else if amt.IsNegative() {
			out := amt.Abs()
			s.Expenses = s.Expenses.MustAdd(out)
			if types[tx.CategoryID] == categorization.TypeSavings {
				s.Savings = s.Savings.MustAdd(out)
			}
			if prev, ok := spent[tx.CategoryID]; ok {
				spent[tx.CategoryID] = prev.MustAdd(out)
			} else {
				spent[tx.CategoryID] = out
			}
		}

		if !tx.Dated() {
			s.Undated++
			continue
		}
		key := tx.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthTotal{
				Month:    key,
				Label:    tx.Date.Format("Jan 06"),
				Income:   money.Zero(currency),
				Expenses: money.Zero(currency),
			}
			months[key] = m
		}
		if amt.IsPositive() {
			m.Income = m.Income.MustAdd(amt)
		} else {
			m.Expenses = m.Expenses.MustAdd(amt.Abs())
		}
	}

	s.Net = s.Income.MustAdd(s.Expenses.Negate())

	for _, c := range categories {
		if c.Type != categorization.TypeExpense {
			continue
		}
		cs := CategorySpend{
			ID:      c.ID,
			Name:    c.Name,
			Color:   c.Color,
			Spent:   money.Zero(currency),
			Budget:  money.NewFromDecimal(c.Budget, currency),
			Percent: decimal.Zero,
		}
		if v, ok := spent[c.ID]; ok {
			cs.Spent = v
		}
		if cs.Spent.IsZero() && cs.Budget.IsZero() {
			continue
		}
		if cs.Budget.IsPositive() {
			cs.Percent = decimal.Min(cs.Spent.PercentageOf(cs.Budget), decimal.NewFromInt(100))
			if cs.Spent.Compare(cs.Budget) > 0 {
				cs.Over = true
				cs.OverBy = cs.Spent.MustAdd(cs.Budget.Negate())
			}
		}
		s.Categories = append(s.Categories, cs)
	}

	s.Months = lastMonths(months, currency)
	return s
}

func lastMonths(months map[string]*MonthTotal, currency string) []MonthTotal {
	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > MonthsShown {
		keys = keys[len(keys)-MonthsShown:]
	}

	out := make([]MonthTotal, 0, len(keys))
	running := money.Zero(currency)
	for _, k := range keys {
		m := *months[k]
		running = running.MustAdd(m.Income).MustAdd(m.Expenses.Negate())
		if running.IsNegative() {
			m.RunningSavings = money.Zero(currency)
		} else {
			m.RunningSavings = running
		}
		out = append(out, m)
	}
	return out
}
