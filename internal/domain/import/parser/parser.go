// Package parser decodes uploaded statement files into rows of string cells.
// Row 0 of every decoded table is a header candidate; deciding whether it really
// is a header belongs to the sniffer.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrDecoderUnavailable = errors.New("spreadsheet decoder unavailable")
	ErrDecodeParseFailure = errors.New("could not parse file")
)

// Format is the decoding path chosen from a file's extension.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
	FormatPDF         Format = "pdf"
	FormatImage       Format = "image"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".heic": true,
	".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

// FormatFromFilename maps a file name to its decoding path. Unknown extensions
// are read as delimited text.
func FormatFromFilename(name string) Format {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf":
		return FormatPDF
	case imageExtensions[ext]:
		return FormatImage
	case ext == ".xlsx" || ext == ".xlsm" || ext == ".xls":
		return FormatSpreadsheet
	default:
		return FormatCSV
	}
}

// Table is the decoder output: ordered rows of trimmed cells.
type Table struct {
	Format Format
	Rows   [][]string
}

// Header returns the first row, or nil for an empty table.
func (t *Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// Decoder turns raw file content into a Table.
type Decoder struct {
	sheets SheetReader
	pdf    *PDFParser
}

// NewDecoder creates a decoder. sheets may be nil, in which case spreadsheet
// uploads fail with ErrDecoderUnavailable.
func NewDecoder(sheets SheetReader) *Decoder {
	return &Decoder{sheets: sheets, pdf: NewPDFParser()}
}

// Decode splits data according to the format implied by filename.
func (d *Decoder) Decode(filename string, data []byte) (*Table, error) {
	format := FormatFromFilename(filename)

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatPDF:
		_, err = d.pdf.Parse(bytes.NewReader(data))
		return nil, err
	case FormatImage:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	case FormatSpreadsheet:
		rows, err = d.decodeSpreadsheet(data)
		if err != nil {
			return nil, err
		}
	default:
		rows = SplitCSV(NormalizeText(data))
	}

	rows = dropShortRows(rows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows found", ErrDecodeParseFailure)
	}

	return &Table{Format: format, Rows: rows}, nil
}

func (d *Decoder) decodeSpreadsheet(data []byte) ([][]string, error) {
	if d.sheets == nil {
		return nil, ErrDecoderUnavailable
	}

	headers, records, err := d.sheets.ReadSheet(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeParseFailure, err)
	}
	if len(headers) == 0 {
		return nil, nil
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, headers)
	for _, record := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = record[h]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SplitCSV splits comma-separated text. A double quote toggles quoted state and
// is itself dropped; inside quotes commas and newlines belong to the cell.
// Doubled quotes are not unescaped: `"a ""b"""` decodes to `a b`.
func SplitCSV(text string) [][]string {
	var (
		rows    [][]string
		row     []string
		cell    strings.Builder
		inQuote bool
		touched bool
	)

	endCell := func() {
		row = append(row, strings.TrimSpace(cell.String()))
		cell.Reset()
	}

	for _, ch := range text {
		switch {
		case ch == '"':
			inQuote = !inQuote
			touched = true
		case ch == ',' && !inQuote:
			endCell()
			touched = true
		case ch == '\n' && !inQuote:
			endCell()
			rows = append(rows, row)
			row = nil
			touched = false
		default:
			cell.WriteRune(ch)
			if ch != ' ' && ch != '\t' && ch != '\r' {
				touched = true
			}
		}
	}

	if touched {
		endCell()
		rows = append(rows, row)
	}
	return rows
}

// NormalizeText strips a UTF-8 BOM and reads non-UTF-8 input as ISO-8859-1,
// the encoding most bank exports fall back to.
func NormalizeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// dropShortRows removes rows with one cell or fewer, typically blank lines.
func dropShortRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		if len(r) > 1 {
			out = append(out, r)
		}
	}
	return out
}
