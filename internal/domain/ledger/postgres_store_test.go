package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
)

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	imported := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, color, budget::text, type`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "color", "budget", "type"}).
			AddRow("grocery", "Grocery", "#34D399", "400", "expense").
			AddRow("other", "Other", "#9CA3AF", "0", "expense"))
	mock.ExpectQuery(`SELECT id, keyword, category_id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword", "category_id"}).
			AddRow("kw_1", "h-e-b", "grocery"))
	mock.ExpectQuery(`FROM transactions`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "date", "description", "amount", "category_id", "note", "amount_parse_failed", "batch_id", "imported_at",
		}).
			AddRow("t_b_0", "2026-01-05", "H-E-B #12", "-42.1", "grocery", "", false, "b", imported).
			AddRow("t_b_1", "", "ODD ROW", "0", "other", "check", true, "b", imported))
	mock.ExpectQuery(`FROM column_mappings`).
		WillReturnRows(pgxmock.NewRows([]string{"fingerprint", "mapping", "preset_key", "updated_at"}).
			AddRow("fp", `{"date":0,"description":2,"amount":4,"debit":-1,"credit":-1}`, "bank_of_america_credit", imported))

	st, err := NewPostgresStore(mock).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, st.Categories, 2)
	assert.True(t, decimal.NewFromInt(400).Equal(st.Categories[0].Budget))
	assert.Equal(t, categorization.TypeExpense, st.Categories[0].Type)

	require.Len(t, st.Rules, 1)
	assert.Equal(t, "h-e-b", st.Rules[0].Keyword)

	require.Len(t, st.Transactions, 2)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), st.Transactions[0].Date)
	assert.Equal(t, "-42.1", st.Transactions[0].Amount.String())
	assert.False(t, st.Transactions[1].Dated())
	assert.True(t, st.Transactions[1].AmountParseFailed)

	require.Len(t, st.Mappings, 1)
	assert.Equal(t, layout.ColumnMapping{Date: 0, Description: 2, Amount: 4, Debit: -1, Credit: -1}, st.Mappings[0].Mapping)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM categories`).WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStore(mock).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query categories")
}

func TestPostgresStore_AppendTransactions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	imported := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{ID: "t_b_0", Date: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Description: "H-E-B", Amount: decimal.RequireFromString("-42.10"), CategoryID: "grocery", BatchID: "b", ImportedAt: imported},
		{ID: "t_b_1", Description: "PAYROLL", Amount: decimal.NewFromInt(2500), CategoryID: "income", BatchID: "b", ImportedAt: imported},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs("t_b_0", "2026-01-05", "H-E-B", "-42.1", "grocery", "", false, "b", imported).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs("t_b_1", "", "PAYROLL", "2500", "income", "", false, "b", imported).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresStore(mock).AppendTransactions(context.Background(), txs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendTransactionsRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactions`).WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = NewPostgresStore(mock).AppendTransactions(context.Background(), []Transaction{{ID: "t_x_0", Description: "x"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateTransaction(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE transactions SET category_id`).
			WithArgs("t_b_0", "food", "lunch").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = NewPostgresStore(mock).UpdateTransaction(context.Background(), Transaction{ID: "t_b_0", CategoryID: "food", Note: "lunch"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`UPDATE transactions SET category_id`).
			WithArgs("nope", "food", "").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewPostgresStore(mock).UpdateTransaction(context.Background(), Transaction{ID: "nope", CategoryID: "food"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_Upserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	ctx := context.Background()
	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO keyword_rules`).
		WithArgs("kw_1", "h-e-b", "grocery").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO categories`).
		WithArgs("pets", "Pets", "#000000", "75.5", "expense").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO column_mappings`).
		WithArgs("fp", `{"date":0,"description":1,"amount":2,"debit":-1,"credit":-1}`, "", updated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveRule(ctx, categorization.KeywordRule{ID: "kw_1", Keyword: "h-e-b", CategoryID: "grocery"}))
	require.NoError(t, store.SaveCategory(ctx, categorization.Category{
		ID: "pets", Name: "Pets", Color: "#000000", Budget: decimal.RequireFromString("75.50"), Type: categorization.TypeExpense,
	}))
	require.NoError(t, store.SaveMapping(ctx, RememberedMapping{
		Fingerprint: "fp",
		Mapping:     layout.ColumnMapping{Date: 0, Description: 1, Amount: 2, Debit: -1, Credit: -1},
		UpdatedAt:   updated,
	}))

	assert.NoError(t, mock.ExpectationsWereMet())
}
