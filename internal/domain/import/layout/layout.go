// Package layout holds the column-role model shared by inference, presets, the
// disambiguation gate and the transaction assembler.
package layout

import (
	"fmt"
	"strings"
)

// Unset marks a role with no column assigned.
const Unset = -1

// Role identifies what a statement column carries.
type Role int

const (
	RoleUnused Role = iota
	RoleDate
	RoleDescription
	RoleAmount
	RoleDebit
	RoleCredit
)

// Roles lists every assignable role in display order.
var Roles = []Role{RoleDate, RoleDescription, RoleAmount, RoleDebit, RoleCredit}

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleDescription:
		return "description"
	case RoleAmount:
		return "amount"
	case RoleDebit:
		return "debit"
	case RoleCredit:
		return "credit"
	default:
		return "unused"
	}
}

// ParseRole accepts the names produced by Role.String plus a few aliases used on the CLI.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date":
		return RoleDate, nil
	case "description", "desc":
		return RoleDescription, nil
	case "amount", "amt":
		return RoleAmount, nil
	case "debit", "withdrawal":
		return RoleDebit, nil
	case "credit", "deposit":
		return RoleCredit, nil
	case "unused", "none":
		return RoleUnused, nil
	}
	return RoleUnused, fmt.Errorf("unknown column role %q", s)
}

// ColumnMapping assigns a zero-based column index (or Unset) to each role.
// One index per role keeps Date and Description single-sourced. When Amount is
// set it is the only source of the signed value; Debit and Credit are read only
// when it is not.
type ColumnMapping struct {
	Date        int `json:"date" yaml:"date"`
	Description int `json:"description" yaml:"description"`
	Amount      int `json:"amount" yaml:"amount"`
	Debit       int `json:"debit" yaml:"debit"`
	Credit      int `json:"credit" yaml:"credit"`
}

// NewMapping returns a mapping with every role unset.
func NewMapping() ColumnMapping {
	return ColumnMapping{
		Date:        Unset,
		Description: Unset,
		Amount:      Unset,
		Debit:       Unset,
		Credit:      Unset,
	}
}

// Index returns the column assigned to role.
func (m ColumnMapping) Index(role Role) int {
	switch role {
	case RoleDate:
		return m.Date
	case RoleDescription:
		return m.Description
	case RoleAmount:
		return m.Amount
	case RoleDebit:
		return m.Debit
	case RoleCredit:
		return m.Credit
	}
	return Unset
}

// Set assigns col to role. Passing Unset marks the role as not used.
func (m *ColumnMapping) Set(role Role, col int) {
	if col < 0 {
		col = Unset
	}
	switch role {
	case RoleDate:
		m.Date = col
	case RoleDescription:
		m.Description = col
	case RoleAmount:
		m.Amount = col
	case RoleDebit:
		m.Debit = col
	case RoleCredit:
		m.Credit = col
	}
}

// Has reports whether role has a column.
func (m ColumnMapping) Has(role Role) bool {
	return m.Index(role) >= 0
}

// HasAmountSource reports whether any signed-value source is mapped.
func (m ColumnMapping) HasAmountSource() bool {
	return m.Amount >= 0 || m.Debit >= 0 || m.Credit >= 0
}

// SplitAmount reports whether the signed value comes from debit/credit columns.
func (m ColumnMapping) SplitAmount() bool {
	return m.Amount < 0 && (m.Debit >= 0 || m.Credit >= 0)
}

// Missing lists the required roles that are not mapped, in prompt order:
// description, date, then amount standing in for the amount/debit/credit group.
func (m ColumnMapping) Missing() []Role {
	var missing []Role
	if m.Description < 0 {
		missing = append(missing, RoleDescription)
	}
	if m.Date < 0 {
		missing = append(missing, RoleDate)
	}
	if !m.HasAmountSource() {
		missing = append(missing, RoleAmount)
	}
	return missing
}

// Complete reports whether the mapping can be committed.
func (m ColumnMapping) Complete() bool {
	return len(m.Missing()) == 0
}

// RoleOf returns the role assigned to col, RoleUnused when none.
func (m ColumnMapping) RoleOf(col int) Role {
	for _, r := range Roles {
		if m.Index(r) == col {
			return r
		}
	}
	return RoleUnused
}

// Cell returns row[col], or "" when col is unset or past the end of a short row.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
