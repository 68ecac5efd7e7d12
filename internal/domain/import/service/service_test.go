package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/gate"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/parser"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/budget-dashboard/pkg/metrics"
	"github.com/FACorreiaa/budget-dashboard/pkg/money"
	"github.com/FACorreiaa/budget-dashboard/pkg/storage"
)

const postedDateCSV = `Posted Date,Reference Number,Payee,Address,Amount
01/05/2026,24492156005,STARBUCKS STORE #123,"SEATTLE, WA",-6.75
01/06/2026,24492156006,PAYROLL ACME CORP,,2500.00
`

const wellsFargoCSV = `"01/05/2026","-42.10","*","","H-E-B #123 HOUSTON TX"
"01/07/2026","-15.00","*","","NETFLIX.COM"
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, policy gate.Policy) (*ImportService, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json")), discardLogger())
	require.NoError(t, l.Load(context.Background()))

	svc := NewImportService(parser.NewDecoder(nil), preset.DefaultRegistry(), l, policy, discardLogger()).
		WithMetrics(metrics.New())
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return svc, l
}

func commitResolver(t *testing.T) Resolver {
	return ResolverFunc(func(_ context.Context, g *gate.Gate) error {
		return g.Commit()
	})
}

func TestImport_PostedDatePayeeAmount(t *testing.T) {
	svc, l := newTestService(t, gate.Policy{})

	res, err := svc.Import(context.Background(), "Checking1.csv", []byte(postedDateCSV), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, ImportedNotice(2), res.Notice)

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "STARBUCKS STORE #123", txs[0].Description)
	assert.Equal(t, "-6.75", txs[0].Amount.String())
	assert.Equal(t, "food", txs[0].CategoryID)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, "income", txs[1].CategoryID)
	assert.Equal(t, "2500", txs[1].Amount.String())

	// nobody confirmed anything, so nothing is remembered
	g, err := svc.Begin(context.Background(), "Checking1.csv", []byte(postedDateCSV))
	require.NoError(t, err)
	_, ok := l.Mapping(g.Batch().Fingerprint)
	assert.False(t, ok)
}

func TestImport_GeneratedStatement(t *testing.T) {
	svc, l := newTestService(t, gate.Policy{})
	lines := money.NewStatementGenerator(7, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)).Lines(60)
	data, err := money.CSV(lines, true)
	require.NoError(t, err)

	res, err := svc.Import(context.Background(), "generated.csv", data, nil)
	require.NoError(t, err)
	require.Equal(t, len(lines), res.Imported)
	assert.Zero(t, res.AmountFailures)
	assert.Zero(t, res.Undated)

	classifier := l.Classifier()
	for i, tx := range l.Transactions() {
		assert.Equal(t, lines[i].Description, tx.Description)
		assert.True(t, lines[i].Amount.Equal(tx.Amount), "%s != %s", lines[i].Amount, tx.Amount)
		assert.True(t, lines[i].Date.Equal(tx.Date), tx.Description)

		want, _ := classifier.Classify(tx.Description)
		assert.Equal(t, want, tx.CategoryID, tx.Description)
	}
}

func TestImport_HeaderlessWellsFargo(t *testing.T) {
	svc, l := newTestService(t, gate.Policy{})
	ctx := context.Background()

	_, err := svc.Import(ctx, "wf.csv", []byte(wellsFargoCSV), nil)
	require.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, l.Transactions())

	var seen gate.View
	resolver := ResolverFunc(func(_ context.Context, g *gate.Gate) error {
		seen = g.View()
		return g.Commit()
	})

	res, err := svc.Import(ctx, "wf.csv", []byte(wellsFargoCSV), resolver)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	assert.Equal(t, gate.ReasonHeaderless, seen.Reason)
	assert.Equal(t, "wells_fargo", seen.PresetKey)
	assert.Equal(t, []string{"Column 1", "Column 2", "Column 3", "Column 4", "Column 5"}, seen.Headers)

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "H-E-B #123 HOUSTON TX", txs[0].Description)
	assert.Equal(t, "-42.1", txs[0].Amount.String())
	assert.Equal(t, "grocery", txs[0].CategoryID)
	assert.Equal(t, "subscriptions", txs[1].CategoryID)

	t.Run("confirmed mapping is remembered", func(t *testing.T) {
		g, err := svc.Begin(ctx, "wf-feb.csv", []byte(wellsFargoCSV))
		require.NoError(t, err)

		remembered, ok := l.Mapping(g.Batch().Fingerprint)
		require.True(t, ok)
		assert.Equal(t, "wells_fargo", remembered.PresetKey)
		assert.Equal(t, layout.ColumnMapping{Date: 0, Description: 4, Amount: 1, Debit: -1, Credit: -1}, remembered.Mapping)
		assert.Equal(t, remembered.Mapping, g.Batch().Mapping)
		require.NoError(t, g.Cancel())
	})
}

func TestImport_FileRulesComeFirst(t *testing.T) {
	svc, l := newTestService(t, gate.Policy{})
	_, err := l.AddRule(context.Background(), "starbucks", "grocery")
	require.NoError(t, err)
	svc.WithRules([]categorization.KeywordRule{{ID: "file_1", Keyword: "starbucks store", CategoryID: "entertainment"}})

	_, err = svc.Import(context.Background(), "Checking1.csv", []byte(postedDateCSV), nil)
	require.NoError(t, err)

	txs := l.Transactions()
	assert.Equal(t, "entertainment", txs[0].CategoryID)
	assert.Equal(t, "income", txs[1].CategoryID)
}

func TestImport_DescriptionRejected(t *testing.T) {
	svc, l := newTestService(t, gate.Policy{})

	data := "Date,Description,Amount,Details\n" +
		"01/05/2026,DEBIT,-6.75,STARBUCKS STORE #9\n" +
		"01/06/2026,CREDIT,100.00,ZELLE FROM SAM\n"

	var firstErr error
	resolver := ResolverFunc(func(_ context.Context, g *gate.Gate) error {
		assert.Equal(t, gate.ReasonDescriptionRejected, g.Reason())
		firstErr = g.Commit()
		if err := g.SetRole(layout.RoleDescription, 3); err != nil {
			return err
		}
		return g.Commit()
	})

	res, err := svc.Import(context.Background(), "flags.csv", []byte(data), resolver)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	var verr *gate.ValidationError
	require.ErrorAs(t, firstErr, &verr)
	assert.ErrorIs(t, firstErr, gate.ErrValidationRefused)
	assert.Equal(t, "Please select the Description column.", verr.Message)

	txs := l.Transactions()
	assert.Equal(t, "STARBUCKS STORE #9", txs[0].Description)
	assert.Equal(t, "income", txs[1].CategoryID)
}

func TestImport_Cancelled(t *testing.T) {
	t.Run("resolver cancels", func(t *testing.T) {
		svc, l := newTestService(t, gate.Policy{})
		resolver := ResolverFunc(func(_ context.Context, g *gate.Gate) error { return g.Cancel() })

		_, err := svc.Import(context.Background(), "wf.csv", []byte(wellsFargoCSV), resolver)
		require.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, SeverityInfo, NoticeFor(err).Severity)
		assert.Empty(t, l.Transactions())
	})

	t.Run("resolver fails", func(t *testing.T) {
		svc, l := newTestService(t, gate.Policy{})
		resolver := ResolverFunc(func(context.Context, *gate.Gate) error { return errors.New("stdin closed") })

		_, err := svc.Import(context.Background(), "wf.csv", []byte(wellsFargoCSV), resolver)
		require.ErrorIs(t, err, ErrCancelled)
		assert.Empty(t, l.Transactions())
	})

	t.Run("context done while waiting", func(t *testing.T) {
		svc, l := newTestService(t, gate.Policy{})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var g *gate.Gate
		resolver := ResolverFunc(func(_ context.Context, open *gate.Gate) error {
			g = open
			cancel()
			return nil
		})

		_, err := svc.Import(ctx, "wf.csv", []byte(wellsFargoCSV), resolver)
		require.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, gate.StateCancelled, g.State())
		assert.Empty(t, l.Transactions())
	})
}

func TestImport_AlwaysConfirm(t *testing.T) {
	svc, _ := newTestService(t, gate.Policy{AlwaysConfirm: true})

	g, err := svc.Begin(context.Background(), "Checking1.csv", []byte(postedDateCSV))
	require.NoError(t, err)
	assert.Equal(t, gate.StateAwaitingConfirmation, g.State())
	assert.Equal(t, gate.ReasonAlwaysConfirm, g.Reason())

	_, err = svc.Import(context.Background(), "Checking1.csv", []byte(postedDateCSV), commitResolver(t))
	require.NoError(t, err)
}

func TestImport_DecodeFailures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		wantErr  error
		severity Severity
	}{
		{"pdf", "statement.pdf", "%PDF-1.7", parser.ErrUnsupportedFormat, SeverityInfo},
		{"image", "photo.jpg", "\xff\xd8", parser.ErrUnsupportedFormat, SeverityInfo},
		{"spreadsheet without reader", "export.xlsx", "PK", parser.ErrDecoderUnavailable, SeverityInfo},
		{"no rows", "empty.csv", "\n\n", parser.ErrDecodeParseFailure, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, l := newTestService(t, gate.Policy{})

			_, err := svc.Import(context.Background(), tt.filename, []byte(tt.data), commitResolver(t))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.severity, NoticeFor(err).Severity)
			assert.Empty(t, l.Transactions())
		})
	}
}

func TestComplete_RequiresReadyGate(t *testing.T) {
	svc, _ := newTestService(t, gate.Policy{})

	g, err := svc.Begin(context.Background(), "wf.csv", []byte(wellsFargoCSV))
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), g)
	assert.ErrorIs(t, err, gate.ErrInvalidTransition)

	require.NoError(t, g.Cancel())
	_, err = svc.Complete(context.Background(), g)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestImport_ArchivesUploads(t *testing.T) {
	svc, _ := newTestService(t, gate.Policy{})
	archive, err := storage.NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	svc.WithArchive(archive)

	res, err := svc.Import(context.Background(), "Checking1.csv", []byte(postedDateCSV), nil)
	require.NoError(t, err)

	files, err := archive.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.BatchID, files[0].BatchID)
	assert.Equal(t, "Checking1.csv", files[0].Name)
}

func TestImport_ConcurrentBatchesDoNotInterleave(t *testing.T) {
	svc, l := newTestService(t, gate.Policy{})

	const batches = 8
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Import(context.Background(), fmt.Sprintf("stmt-%d.csv", i), []byte(postedDateCSV), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	txs := l.Transactions()
	require.Len(t, txs, batches*2)

	seen := map[string]bool{}
	for i := 0; i < len(txs); i += 2 {
		batch := txs[i].BatchID
		assert.False(t, seen[batch], "batch %s appears twice", batch)
		seen[batch] = true
		assert.Equal(t, batch, txs[i+1].BatchID)
		assert.Equal(t, "STARBUCKS STORE #123", txs[i].Description)
	}
}

func TestNoticeFor(t *testing.T) {
	assert.Equal(t, "Could not parse file. Please check the format.",
		NoticeFor(fmt.Errorf("decode x.csv: %w", parser.ErrDecodeParseFailure)).Message)
	assert.Contains(t, NoticeFor(parser.ErrPDFNotSupported).Message, "PDF support coming soon")
	assert.Equal(t, SeverityError, NoticeFor(errors.New("disk full")).Severity)
	assert.Equal(t, "Imported 3 transactions!", ImportedNotice(3).Message)
}
