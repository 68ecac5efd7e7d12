package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetReader is the spreadsheet capability the decoder delegates to. It yields
// the header row and one record per data row keyed by header, with "" for
// absent cells.
type SheetReader interface {
	ReadSheet(r io.Reader) (headers []string, records []map[string]string, err error)
}

// ExcelReader reads XLSX workbooks with excelize.
type ExcelReader struct{}

// NewExcelReader creates an excelize-backed SheetReader.
func NewExcelReader() *ExcelReader {
	return &ExcelReader{}
}

// ReadSheet reads the transaction sheet of a workbook. The first non-blank row
// is the header; fully blank rows are skipped.
func (x *ExcelReader) ReadSheet(r io.Reader) ([]string, []map[string]string, error) {
	// Date cells render with the built-in short date format; pin it to the
	// month-first slash shape the CSV path reads.
	f, err := excelize.OpenReader(r, excelize.Options{ShortDatePattern: "mm/dd/yyyy"})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := findTransactionSheet(f)
	if sheet == "" {
		return nil, nil, fmt.Errorf("no suitable sheet found")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	start := 0
	for start < len(rows) && isBlankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, nil, nil
	}

	headers := uniqueHeaders(rows[start])
	records := make([]map[string]string, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if isBlankRow(row) {
			continue
		}
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
			} else {
				record[h] = ""
			}
		}
		records = append(records, record)
	}

	return headers, records, nil
}

// findTransactionSheet prefers a sheet named like a statement, else the first one.
func findTransactionSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}

	preferredNames := []string{"transactions", "statement", "activity", "data", "sheet1"}
	for _, preferred := range preferredNames {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}

	return sheets[0]
}

// uniqueHeaders trims header cells, names empty ones __EMPTY and suffixes
// repeats with _1, _2 so every record key is distinct.
func uniqueHeaders(raw []string) []string {
	used := make(map[string]bool, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "__EMPTY"
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", h, n)
		}
		used[name] = true
		headers[i] = name
	}
	return headers
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
