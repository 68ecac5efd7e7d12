// Package ledger owns the persisted budget state: transactions, categories,
// user keyword rules and remembered column mappings.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
)

// Transaction is one statement line. Only CategoryID and Note change after import.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"` // zero when the statement date did not parse
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  string          `json:"categoryId"`
	Note        string          `json:"note"`

	// AmountParseFailed marks rows whose amount cell was unreadable and
	// stored as zero.
	AmountParseFailed bool      `json:"amountParseFailed,omitempty"`
	BatchID           string    `json:"batchId,omitempty"`
	ImportedAt        time.Time `json:"importedAt"`
}

// Dated reports whether the transaction has a usable date.
func (t Transaction) Dated() bool {
	return !t.Date.IsZero()
}

// RememberedMapping is a confirmed column mapping for a header fingerprint.
type RememberedMapping struct {
	Fingerprint string               `json:"fingerprint"`
	Mapping     layout.ColumnMapping `json:"mapping"`
	PresetKey   string               `json:"presetKey,omitempty"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// State is everything the dashboard persists.
type State struct {
	Transactions []Transaction                `json:"transactions"` // newest first
	Categories   []categorization.Category    `json:"categories"`
	Rules        []categorization.KeywordRule `json:"rules"`
	Mappings     []RememberedMapping          `json:"mappings"`
}
