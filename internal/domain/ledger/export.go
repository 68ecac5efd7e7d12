package ledger

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

type exportRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
	Note        string `csv:"Note"`
	ID          string `csv:"ID"`
}

// WriteCSV writes transactions in the given order. Undated rows get an empty
// Date cell; categoryNames maps ids to display names and falls back to the id.
func WriteCSV(w io.Writer, txs []Transaction, categoryNames map[string]string) error {
	rows := make([]exportRow, 0, len(txs))
	for _, tx := range txs {
		name, ok := categoryNames[tx.CategoryID]
		if !ok {
			name = tx.CategoryID
		}
		rows = append(rows, exportRow{
			Date:        formatDate(tx.Date),
			Description: tx.Description,
			Amount:      tx.Amount.StringFixed(2),
			Category:    name,
			Note:        tx.Note,
			ID:          tx.ID,
		})
	}

	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}
	return nil
}
