// Package normalizer turns raw statement cells into decimal amounts and dates.
package normalizer

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a normalized monetary cell.
type Amount struct {
	Value decimal.Decimal

	// Failed marks a non-empty cell that did not parse. Value is zero.
	Failed bool

	// NonFinite marks a numeric input that was NaN or infinite.
	NonFinite bool
}

// Positive reports whether the amount is strictly above zero.
func (a Amount) Positive() bool {
	return !a.NonFinite && a.Value.IsPositive()
}

var amountReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "",
	",", "",
	" ", "", "\t", "", "\u00a0", "",
)

// ParseAmount normalizes a cell value. Numbers pass through unchanged. Strings
// lose currency symbols, thousands separators and whitespace before parsing; an
// unparseable string yields zero with Failed set rather than an error.
func ParseAmount(v any) Amount {
	switch n := v.(type) {
	case nil:
		return Amount{Value: decimal.Zero}
	case decimal.Decimal:
		return Amount{Value: n}
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return Amount{Value: decimal.NewFromInt(int64(n))}
	case int32:
		return Amount{Value: decimal.NewFromInt32(n)}
	case int64:
		return Amount{Value: decimal.NewFromInt(n)}
	case string:
		return parseAmountString(n)
	default:
		return Amount{Value: decimal.Zero, Failed: true}
	}
}

func fromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{Value: decimal.Zero, NonFinite: true}
	}
	return Amount{Value: decimal.NewFromFloat(f)}
}

func parseAmountString(s string) Amount {
	cleaned := amountReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return Amount{Value: decimal.Zero}
	}
	cleaned = strings.TrimPrefix(cleaned, "+")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Amount{Value: decimal.Zero, Failed: true}
	}
	return Amount{Value: d}
}

// Reconcile combines separate debit and credit magnitudes into one signed
// amount. A positive credit wins; otherwise a positive debit is negated.
func Reconcile(debit, credit Amount) Amount {
	switch {
	case credit.Positive():
		return Amount{Value: credit.Value, Failed: debit.Failed}
	case debit.Positive():
		return Amount{Value: debit.Value.Neg(), Failed: credit.Failed}
	default:
		return Amount{
			Value:     decimal.Zero,
			Failed:    debit.Failed || credit.Failed,
			NonFinite: debit.NonFinite && credit.NonFinite,
		}
	}
}
