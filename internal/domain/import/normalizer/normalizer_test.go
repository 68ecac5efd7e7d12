package normalizer

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name       string
		in         any
		want       string
		wantFailed bool
	}{
		{"plain negative", "-6.75", "-6.75", false},
		{"dollar and thousands", "$1,234.56", "1234.56", false},
		{"euro with spaces", "€ 2 500.00", "2500", false},
		{"pound", "£12", "12", false},
		{"yen", "¥-300", "-300", false},
		{"leading plus", "+100.10", "100.1", false},
		{"empty string", "", "0", false},
		{"whitespace only", "   ", "0", false},
		{"garbage is a silent zero", "N/A", "0", true},
		{"parentheses are not negatives", "(5.00)", "0", true},
		{"float passes through", -42.1, "-42.1", false},
		{"int passes through", 15, "15", false},
		{"decimal passes through", decimal.RequireFromString("9.99"), "9.99", false},
		{"nil", nil, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Value), "got %s", got.Value)
			assert.Equal(t, tt.wantFailed, got.Failed)
			assert.False(t, got.NonFinite)
		})
	}

	t.Run("non-finite floats are flagged", func(t *testing.T) {
		assert.True(t, ParseAmount(math.NaN()).NonFinite)
		assert.True(t, ParseAmount(math.Inf(-1)).NonFinite)
		assert.True(t, ParseAmount(float32(math.Inf(1))).NonFinite)
	})
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name          string
		debit, credit string
		want          string
	}{
		{"credit only", "", "100.00", "100"},
		{"debit only", "25.50", "", "-25.5"},
		{"credit wins when both set", "10", "20", "20"},
		{"neither", "", "", "0"},
		{"zero credit falls through to debit", "5", "0", "-5"},
		{"negative magnitudes are ignored", "-5", "-7", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(ParseAmount(tt.debit), ParseAmount(tt.credit))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Value), "got %s", got.Value)
		})
	}

	t.Run("failure signal survives when nothing parsed", func(t *testing.T) {
		got := Reconcile(ParseAmount("abc"), ParseAmount(""))
		assert.True(t, got.Failed)
		assert.True(t, got.Value.IsZero())
	})
}

func TestParseDate(t *testing.T) {
	jan5 := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2026-01-05", jan5, true},
		{"01/05/2026", jan5, true},
		{"1/5/2026", jan5, true},
		{"1/5/26", jan5, true},
		{"01/05/26", jan5, true},
		{" 01/05/2026 ", jan5, true},
		{"Jan 5, 2026", jan5, true},
		{"January 5, 2026", jan5, true},
		{"5 Jan 2026", jan5, true},
		{"2026/01/05", jan5, true},
		{"2026-01-05T18:30:00Z", jan5, true},
		{"01-05-26", jan5, true},
		{"01-05-2026", jan5, true},
		{"1/5/26 0:00", jan5, true},
		{"01/05/2026 18:30", jan5, true},
		{"1/5/26 6:30 PM", jan5, true},
		{"2026-01-05 18:30:00", jan5, true},
		{"13-01-26", time.Time{}, false},
		{"13/01/2026", time.Time{}, false},
		{"02/30/2026", time.Time{}, false},
		{"2026-00-10", time.Time{}, false},
		{"1/5/026", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			require.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseDate_RoundTrip(t *testing.T) {
	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() < 2026; d = d.AddDate(0, 0, 17) {
		got, ok := ParseDate(FormatDate(d))
		require.True(t, ok)
		assert.True(t, d.Equal(got))

		got, ok = ParseDate(d.Format("1/2/2006"))
		require.True(t, ok)
		assert.True(t, d.Equal(got))
	}

	assert.Equal(t, "", FormatDate(time.Time{}))
}
