package parser

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/normalizer"
)

func TestSplitCSV(t *testing.T) {
	t.Run("quoted field containing a comma", func(t *testing.T) {
		rows := SplitCSV(`"Smith, John",100.00`)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"Smith, John", "100.00"}, rows[0])
	})

	t.Run("newline inside quotes stays in the cell", func(t *testing.T) {
		rows := SplitCSV("date,memo\n01/02/2026,\"line one\nline two\"\n")
		require.Len(t, rows, 2)
		assert.Equal(t, "line one\nline two", rows[1][1])
	})

	t.Run("doubled quotes are not unescaped", func(t *testing.T) {
		rows := SplitCSV(`"He said ""hi""",5`)
		require.Len(t, rows, 1)
		assert.Equal(t, "He said hi", rows[0][0])
	})

	t.Run("cells are trimmed and CRLF handled", func(t *testing.T) {
		rows := SplitCSV("Date , Amount \r\n 01/05/2026 , -6.75\r\n")
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"Date", "Amount"}, rows[0])
		assert.Equal(t, []string{"01/05/2026", "-6.75"}, rows[1])
	})

	t.Run("last line without newline is kept", func(t *testing.T) {
		rows := SplitCSV("a,b\nc,d")
		assert.Len(t, rows, 2)
	})

	t.Run("variable row lengths are preserved", func(t *testing.T) {
		rows := SplitCSV("a,b,c\nd,e\n")
		assert.Len(t, rows[0], 3)
		assert.Len(t, rows[1], 2)
	})
}

func TestDecoder_DecodeCSV(t *testing.T) {
	d := NewDecoder(nil)

	t.Run("drops rows with a single cell", func(t *testing.T) {
		table, err := d.Decode("stmt.csv", []byte("Posted Date,Payee,Amount\n\n01/05/2026,STARBUCKS,-6.75\n\n\n"))
		require.NoError(t, err)
		assert.Equal(t, FormatCSV, table.Format)
		assert.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"Posted Date", "Payee", "Amount"}, table.Header())
	})

	t.Run("strips UTF-8 BOM", func(t *testing.T) {
		table, err := d.Decode("stmt.csv", []byte("\xef\xbb\xbfDate,Amount\n01/05/2026,1\n"))
		require.NoError(t, err)
		assert.Equal(t, "Date", table.Rows[0][0])
	})

	t.Run("decodes Latin-1 input", func(t *testing.T) {
		table, err := d.Decode("stmt.csv", []byte("Date,Description\n01/05/2026,Caf\xe9 Central\n"))
		require.NoError(t, err)
		assert.Equal(t, "Café Central", table.Rows[1][1])
	})

	t.Run("empty content is a parse failure", func(t *testing.T) {
		_, err := d.Decode("stmt.csv", []byte("\n\n"))
		assert.ErrorIs(t, err, ErrDecodeParseFailure)
	})

	t.Run("unknown extension reads as text", func(t *testing.T) {
		table, err := d.Decode("export.txt", []byte("a,b\n1,2\n"))
		require.NoError(t, err)
		assert.Len(t, table.Rows, 2)
	})
}

func TestDecoder_RejectsNonTabularFormats(t *testing.T) {
	d := NewDecoder(NewExcelReader())

	for _, name := range []string{"statement.pdf", "STATEMENT.PDF", "scan.png", "scan.jpeg", "photo.HEIC"} {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode(name, []byte("Date,Amount\n1,2\n"))
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestDecoder_Spreadsheet(t *testing.T) {
	t.Run("missing reader is DecoderUnavailable", func(t *testing.T) {
		_, err := NewDecoder(nil).Decode("statement.xlsx", []byte("PK"))
		assert.ErrorIs(t, err, ErrDecoderUnavailable)
	})

	t.Run("corrupt workbook is a parse failure", func(t *testing.T) {
		_, err := NewDecoder(NewExcelReader()).Decode("statement.xlsx", []byte("not a zip"))
		assert.ErrorIs(t, err, ErrDecodeParseFailure)
	})

	t.Run("reads rows in header order with empty defaults", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Posted Date", "Payee", "Amount"},
			{"01/05/2026", "STARBUCKS STORE #123", -6.75},
			{nil, nil, nil},
			{"01/06/2026", "DIRECT DEPOSIT PAYROLL"},
		})

		table, err := NewDecoder(NewExcelReader()).Decode("statement.xlsx", data)
		require.NoError(t, err)
		assert.Equal(t, FormatSpreadsheet, table.Format)
		require.Len(t, table.Rows, 3)
		assert.Equal(t, []string{"Posted Date", "Payee", "Amount"}, table.Rows[0])
		assert.Equal(t, "STARBUCKS STORE #123", table.Rows[1][1])
		assert.Equal(t, "-6.75", table.Rows[1][2])
		assert.Equal(t, "", table.Rows[2][2])
	})

	t.Run("date cells read as dates", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Date", "Description", "Amount"}))

		// A time value, and a serial number styled with the built-in short date.
		require.NoError(t, f.SetCellValue("Sheet1", "A2", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, f.SetCellValue("Sheet1", "A3", 46027))
		style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle("Sheet1", "A3", "A3", style))
		for row, desc := range map[int]string{2: "SHELL OIL", 3: "H-E-B"} {
			require.NoError(t, f.SetCellValue("Sheet1", fmt.Sprintf("B%d", row), desc))
			require.NoError(t, f.SetCellValue("Sheet1", fmt.Sprintf("C%d", row), "-10.00"))
		}
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		table, err := NewDecoder(NewExcelReader()).Decode("statement.xlsx", buf.Bytes())
		require.NoError(t, err)
		require.Len(t, table.Rows, 3)

		jan5 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		for _, row := range table.Rows[1:] {
			got, ok := normalizer.ParseDate(row[0])
			require.True(t, ok, "cell %q", row[0])
			assert.True(t, jan5.Equal(got), "cell %q parsed as %v", row[0], got)
		}
	})

	t.Run("reader errors are wrapped", func(t *testing.T) {
		_, err := NewDecoder(failingSheets{}).Decode("statement.xlsx", []byte("x"))
		assert.ErrorIs(t, err, ErrDecodeParseFailure)
		assert.True(t, errors.Is(err, errSheet))
	})
}

func TestUniqueHeaders(t *testing.T) {
	got := uniqueHeaders([]string{"Amount", " Amount ", "", "Amount", ""})
	assert.Equal(t, []string{"Amount", "Amount_1", "__EMPTY", "Amount_2", "__EMPTY_1"}, got)
}

var errSheet = errors.New("sheet exploded")

type failingSheets struct{}

func (failingSheets) ReadSheet(io.Reader) ([]string, []map[string]string, error) {
	return nil, nil, errSheet
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
