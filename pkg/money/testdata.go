package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// StatementGenerator produces realistic bank statement lines for tests and
// demo data. The same seed always yields the same statement.
type StatementGenerator struct {
	faker *gofakeit.Faker
	from  time.Time
	to    time.Time
}

// StatementLine is one generated statement row.
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// NewStatementGenerator creates a generator whose dates fall in the month
// before end.
func NewStatementGenerator(seed int64, end time.Time) *StatementGenerator {
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return &StatementGenerator{
		faker: gofakeit.New(seed),
		from:  end.AddDate(0, -1, 0),
		to:    end,
	}
}

var merchants = []string{
	"STARBUCKS STORE", "MCDONALD'S", "CHIPOTLE", "DOORDASH", "UBER EATS",
	"WALMART SUPERCENTER", "H-E-B", "KROGER", "TRADER JOE'S", "COSTCO WHSE",
	"SHELL OIL", "CHEVRON", "EXXONMOBIL", "UBER TRIP", "LYFT RIDE",
	"NETFLIX.COM", "SPOTIFY USA", "AMAZON MKTPLACE", "TARGET", "CVS PHARMACY",
	"PLANET FITNESS", "PETSMART", "RELIANT ENERGY", "T-MOBILE",
}

var deposits = []string{
	"DIRECT DEP PAYROLL", "ZELLE FROM", "VENMO CASHOUT", "INTEREST PAYMENT", "TAX REFUND",
}

// Line generates one statement line: mostly card purchases, sometimes a deposit.
func (g *StatementGenerator) Line() StatementLine {
	line := StatementLine{Date: g.faker.DateRange(g.from, g.to).UTC().Truncate(24 * time.Hour)}

	if g.faker.Number(1, 10) <= 8 {
		line.Description = fmt.Sprintf("%s #%d", g.faker.RandomString(merchants), g.faker.Number(100, 9999))
		line.Amount = g.cents(150, 25000).Neg()
	} else {
		line.Description = fmt.Sprintf("%s %s", g.faker.RandomString(deposits), strings.ToUpper(g.faker.LastName()))
		line.Amount = g.cents(5000, 350000)
	}
	return line
}

// Lines generates n statement lines.
func (g *StatementGenerator) Lines(n int) []StatementLine {
	out := make([]StatementLine, n)
	for i := range out {
		out[i] = g.Line()
	}
	return out
}

func (g *StatementGenerator) cents(minCents, maxCents int) decimal.Decimal {
	return decimal.New(int64(g.faker.Number(minCents, maxCents)), -2)
}

type statementRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
}

// CSV renders lines as a Date,Description,Amount export with US slash dates.
// Without a header the output looks like a headerless bank download.
func CSV(lines []StatementLine, header bool) ([]byte, error) {
	rows := make([]statementRow, len(lines))
	for i, l := range lines {
		rows[i] = statementRow{
			Date:        l.Date.Format("01/02/2006"),
			Description: l.Description,
			Amount:      l.Amount.StringFixed(2),
		}
	}

	if header {
		return gocsv.MarshalBytes(&rows)
	}
	out, err := gocsv.MarshalStringWithoutHeaders(&rows)
	return []byte(out), err
}
