package preset

import "github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"

// Built-in presets for the US bank exports users upload most. Order matters for
// Detect: more specific signatures come first.
var builtin = []Preset{
	{
		Key:         "wells_fargo",
		Name:        "Wells Fargo",
		Label:       "WF",
		HasHeader:   false,
		Positions:   map[layout.Role]int{layout.RoleDate: 0, layout.RoleAmount: 1, layout.RoleDescription: 4},
		ColumnCount: 5,
	},
	{
		Key:       "chase_checking",
		Name:      "Chase Checking",
		Label:     "CH",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Posting Date",
			layout.RoleDescription: "Description",
			layout.RoleAmount:      "Amount",
		},
		Signature: []string{"Details", "Posting Date", "Description", "Amount"},
	},
	{
		Key:       "chase_credit",
		Name:      "Chase Credit Card",
		Label:     "CH",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Transaction Date",
			layout.RoleDescription: "Description",
			layout.RoleAmount:      "Amount",
		},
		Signature: []string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount"},
	},
	{
		Key:       "bank_of_america_credit",
		Name:      "Bank of America Credit Card",
		Label:     "BofA",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Posted Date",
			layout.RoleDescription: "Payee",
			layout.RoleAmount:      "Amount",
		},
		Signature: []string{"Posted Date", "Payee"},
	},
	{
		Key:       "bank_of_america_checking",
		Name:      "Bank of America Checking",
		Label:     "BofA",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Date",
			layout.RoleDescription: "Description",
			layout.RoleAmount:      "Amount",
		},
		Signature: []string{"Date", "Description", "Amount", "Running Bal."},
	},
	{
		Key:       "capital_one",
		Name:      "Capital One",
		Label:     "C1",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Transaction Date",
			layout.RoleDescription: "Description",
			layout.RoleDebit:       "Debit",
			layout.RoleCredit:      "Credit",
		},
		Signature: []string{"Transaction Date", "Posted Date", "Card No.", "Debit", "Credit"},
	},
	{
		Key:       "citi",
		Name:      "Citi",
		Label:     "Citi",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Date",
			layout.RoleDescription: "Description",
			layout.RoleDebit:       "Debit",
			layout.RoleCredit:      "Credit",
		},
		Signature: []string{"Status", "Date", "Description", "Debit", "Credit"},
	},
	{
		Key:       "discover",
		Name:      "Discover",
		Label:     "DSC",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Trans. Date",
			layout.RoleDescription: "Description",
			layout.RoleAmount:      "Amount",
		},
		Signature: []string{"Trans. Date", "Post Date", "Description", "Amount"},
	},
	{
		Key:       "apple_card",
		Name:      "Apple Card",
		Label:     "AC",
		HasHeader: true,
		Headers: map[layout.Role]string{
			layout.RoleDate:        "Transaction Date",
			layout.RoleDescription: "Merchant",
			layout.RoleAmount:      "Amount (USD)",
		},
		Signature: []string{"Clearing Date", "Merchant", "Amount (USD)"},
	},
}

// DefaultRegistry returns a registry with all built-in presets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range builtin {
		r.Register(p)
	}
	return r
}
