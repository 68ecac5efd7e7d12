// Package money sums and formats ledger amounts in integer minor units on top
// of go-money. Ledger values stay decimal.Decimal; conversion to Money happens
// only for totals and display.
package money

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY" // no minor unit
)

// DefaultCurrency is used for statements, which carry no currency column.
const DefaultCurrency = USD

// Money is an amount in minor units of one currency.
type Money struct {
	m *money.Money
}

// New creates Money from minor units.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{m: money.New(amountCents, currencyCode)}
}

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// NewFromDecimal rounds amount half away from zero to the currency's minor
// unit. Unknown currency codes fall back to USD. Amounts beyond the int64
// range of minor units saturate at its bounds.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	currency := resolveCurrency(currencyCode)
	return New(clampMinor(toMinor(amount, currency)), currency.Code)
}

func resolveCurrency(code string) *money.Currency {
	if c := money.GetCurrency(code); c != nil {
		return c
	}
	return money.GetCurrency(USD)
}

func toMinor(amount decimal.Decimal, currency *money.Currency) decimal.Decimal {
	return amount.Shift(int32(currency.Fraction)).Round(0)
}

func clampMinor(minor decimal.Decimal) int64 {
	switch {
	case minor.GreaterThan(maxMinor):
		return math.MaxInt64
	case minor.LessThan(minMinor):
		return math.MinInt64
	}
	return minor.IntPart()
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Sum converts each amount and adds them. Rounding happens per amount, the
// way a statement total is computed from its printed lines. The total
// saturates like NewFromDecimal instead of wrapping.
func Sum(currencyCode string, amounts ...decimal.Decimal) *Money {
	currency := resolveCurrency(currencyCode)
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(toMinor(a, currency))
	}
	return New(clampMinor(total), currency.Code)
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

func (m *Money) Abs() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: m.m.Absolute()}
}

func (m *Money) Negate() *Money {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency)
	}
	return &Money{m: m.m.Negative()}
}

// Add adds two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if m == nil || m.m == nil {
		return other, nil
	}
	if other == nil || other.m == nil {
		return m, nil
	}

	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("add %s to %s: %w", other.Currency(), m.Currency(), err)
	}
	return &Money{m: result}, nil
}

// MustAdd is Add for values known to share a currency.
func (m *Money) MustAdd(other *Money) *Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract subtracts other from m. Returns error if currencies don't match.
func (m *Money) Subtract(other *Money) (*Money, error) {
	if other == nil || other.m == nil {
		return m, nil
	}
	return m.Add(other.Negate())
}

// Compare returns -1 if m < other, 0 if equal, 1 if m > other. Values of
// different currencies compare by minor units.
func (m *Money) Compare(other *Money) int {
	a, b := m.Amount(), other.Amount()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Display returns a formatted string for display (e.g., "$1,234.56")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return Zero(DefaultCurrency).Display()
	}
	return m.m.Display()
}

// String returns the amount with exactly the currency's minor digits ("-42.10").
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0.00"
	}
	return m.ToDecimal().StringFixed(int32(m.m.Currency().Fraction))
}

// ToDecimal converts back to decimal.Decimal.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// PercentageOf returns m as a percentage of total, rounded to one place.
// A zero total yields zero.
func (m *Money) PercentageOf(total *Money) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return m.ToDecimal().Div(total.ToDecimal()).Mul(decimal.NewFromInt(100)).Round(1)
}

func (m *Money) MarshalJSON() ([]byte, error) {
	if m == nil || m.m == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{m.String(), m.Currency(), m.Display()})
}
