// Package sniffer infers which columns of a bank export hold the date,
// description and amount. It identifies headerless files, rejects flag columns
// posing as descriptions and generates fingerprints for layout recognition.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
)

// flagSampleSize is how many data rows IsFlagColumn looks at.
const flagSampleSize = 10

var (
	slashDate = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`)
	dateWord  = regexp.MustCompile(`\bdate\b`)
)

// Header vocabularies, matched on lower-cased trimmed text.
var (
	descriptionExact = set(
		"payee", "merchant", "description", "narration", "memo",
		"particulars", "beneficiary", "transaction description", "transaction detail",
	)
	descriptionContains = []string{"payee", "merchant", "memo", "narration"}

	amountExact = set("amount", "transaction amount", "amt", "transaction amt", "net amount", "running balance")
	debitExact  = set("debit", "debit amount", "withdrawals", "withdrawal amount", "money out")
	creditExact = set("credit", "credit amount", "deposits", "deposit amount", "money in")

	// Values a transaction-type column carries instead of free text.
	flagTokens = set(
		"debit", "credit", "ach", "pos", "atm", "chk", "check", "wire", "transfer",
		"withdrawal", "deposit", "payment", "purchase", "fee", "charge", "debit card", "credit card",
	)
)

// Analysis is the outcome of inspecting a decoded table.
type Analysis struct {
	Headers    []string   // real or synthetic header labels
	Rows       [][]string // data rows; includes the first row when headerless
	Headerless bool
	Mapping    layout.ColumnMapping

	// DescriptionRejected is set when the header-matched description column only
	// carried transaction-type flags.
	DescriptionRejected bool

	// SuggestedPreset is the key of a detected bank layout, "" when unknown.
	SuggestedPreset string
	Fingerprint     string
}

// Found reports whether inference resolved role.
func (a *Analysis) Found(role layout.Role) bool {
	return a.Mapping.Has(role)
}

// Analyze runs header detection, name-based inference, the description
// post-check and bank detection over rows. It never fails: unresolved roles are
// left unset for the gate.
func Analyze(rows [][]string, registry *preset.Registry) *Analysis {
	a := &Analysis{Mapping: layout.NewMapping()}
	if len(rows) == 0 {
		a.Fingerprint = GenerateFingerprint(nil)
		return a
	}

	first := rows[0]
	if IsHeaderless(first) {
		a.Headerless = true
		a.Headers = PositionalHeaders(len(first))
		a.Rows = rows
	} else {
		a.Headers = trimAll(first)
		a.Rows = rows[1:]
		a.Mapping = SuggestColumns(a.Headers)

		if a.Mapping.Has(layout.RoleDescription) && IsFlagColumn(a.Rows, a.Mapping.Description) {
			a.Mapping.Description = layout.Unset
			a.DescriptionRejected = true
		}
	}

	if registry != nil {
		if p, ok := registry.Detect(a.Headers, a.Headerless); ok {
			a.SuggestedPreset = p.Key
		}
	}

	if a.Headerless {
		a.Fingerprint = GenerateFingerprint([]string{fmt.Sprintf("headerless:%d", len(first))})
	} else {
		a.Fingerprint = GenerateFingerprint(a.Headers)
	}
	return a
}

// IsHeaderless reports whether the first row already holds data, judged by a
// slash date in its first cell.
func IsHeaderless(firstRow []string) bool {
	if len(firstRow) == 0 {
		return false
	}
	return slashDate.MatchString(strings.TrimSpace(firstRow[0]))
}

// PositionalHeaders returns "Column 1".."Column n".
func PositionalHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = fmt.Sprintf("Column %d", i+1)
	}
	return headers
}

// SuggestColumns attempts to auto-match columns based on header names.
// The first matching header wins for each role.
func SuggestColumns(headers []string) layout.ColumnMapping {
	m := layout.NewMapping()

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}

		if m.Date == layout.Unset && dateWord.MatchString(h) && !strings.Contains(h, "update") {
			m.Date = i
		}
		if m.Description == layout.Unset && descriptionExact[h] {
			m.Description = i
		}
		if m.Amount == layout.Unset && amountExact[h] {
			m.Amount = i
		}
		if m.Debit == layout.Unset && debitExact[h] {
			m.Debit = i
		}
		if m.Credit == layout.Unset && creditExact[h] {
			m.Credit = i
		}
	}

	// Loose description match only when no header is an exact hit.
	if m.Description == layout.Unset {
		for i, header := range headers {
			h := strings.ToLower(strings.TrimSpace(header))
			if containsAny(h, descriptionContains) {
				m.Description = i
				break
			}
		}
	}

	return m
}

// IsFlagColumn reports whether the sampled values of col are all transaction
// type tokens. A column with no non-empty sample is not a flag column.
func IsFlagColumn(rows [][]string, col int) bool {
	if col < 0 {
		return false
	}

	seen := 0
	for i, row := range rows {
		if i >= flagSampleSize {
			break
		}
		v := strings.ToLower(strings.TrimSpace(layout.Cell(row, col)))
		if v == "" {
			continue
		}
		if !flagTokens[v] {
			return false
		}
		seen++
	}
	return seen > 0
}

// GenerateFingerprint creates a stable hash from header names so the same
// export layout can be recognised across uploads.
func GenerateFingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
