// Package assembler turns confirmed statement rows into transactions.
package assembler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/normalizer"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
)

// Classifier assigns a category id to a description.
type Classifier interface {
	Classify(description string) (string, bool)
}

// Options carries per-batch values.
type Options struct {
	BatchID string    // stamp shared by every id in the batch
	Now     time.Time // "today" for files without a date column
}

// Result is the assembled batch.
type Result struct {
	Transactions []ledger.Transaction
	Dropped      int // rows without a description or with a non-finite amount

	// AmountFailures counts kept rows whose amount did not parse and became zero.
	AmountFailures int
	// Undated counts kept rows whose mapped date did not parse.
	Undated int
}

// NewBatchID returns a time-ordered batch stamp.
func NewBatchID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate batch id: %w", err)
	}
	return id.String(), nil
}

// Assemble reads rows with the confirmed mapping. Rows keep file order; a bad
// row is dropped on its own and never fails the batch.
func Assemble(rows [][]string, m layout.ColumnMapping, c Classifier, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)

	res := Result{Transactions: make([]ledger.Transaction, 0, len(rows))}
	for i, row := range rows {
		desc := layout.Cell(row, m.Description)
		if desc == "" {
			desc = fmt.Sprintf("Transaction %d", i+1)
		}
		desc = strings.TrimSpace(desc)

		amt := amountOf(row, m)
		if desc == "" || amt.NonFinite {
			res.Dropped++
			continue
		}

		date := today
		if m.Date != layout.Unset {
			date, _ = normalizer.ParseDate(layout.Cell(row, m.Date))
		}

		category := ""
		if c != nil {
			category, _ = c.Classify(desc)
		}

		tx := ledger.Transaction{
			ID:                fmt.Sprintf("t_%s_%d", opts.BatchID, i),
			Date:              date,
			Description:       desc,
			Amount:            amt.Value,
			CategoryID:        category,
			AmountParseFailed: amt.Failed,
			BatchID:           opts.BatchID,
			ImportedAt:        now,
		}
		if tx.AmountParseFailed {
			res.AmountFailures++
		}
		if !tx.Dated() {
			res.Undated++
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res
}

// amountOf uses the Amount column when mapped, else reconciles Debit/Credit.
func amountOf(row []string, m layout.ColumnMapping) normalizer.Amount {
	if m.Amount != layout.Unset {
		return normalizer.ParseAmount(layout.Cell(row, m.Amount))
	}
	return normalizer.Reconcile(
		normalizer.ParseAmount(layout.Cell(row, m.Debit)),
		normalizer.ParseAmount(layout.Cell(row, m.Credit)),
	)
}
