package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const dateLayout = "2006-01-02"

// PostgresStore keeps ledger state in the tables created by the db migrations.
// Numerics travel as text so decimals keep their exact value.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (State, error) {
	var st State
	var err error

	if st.Categories, err = s.loadCategories(ctx); err != nil {
		return State{}, err
	}
	if st.Rules, err = s.loadRules(ctx); err != nil {
		return State{}, err
	}
	if st.Transactions, err = s.loadTransactions(ctx); err != nil {
		return State{}, err
	}
	if st.Mappings, err = s.loadMappings(ctx); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *PostgresStore) loadCategories(ctx context.Context) ([]categorization.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, color, budget::text, type
		FROM categories
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []categorization.Category
	for rows.Next() {
		var c categorization.Category
		var budget, typ string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &budget, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if c.Budget, err = decimal.NewFromString(budget); err != nil {
			return nil, fmt.Errorf("category %s has invalid budget %q: %w", c.ID, budget, err)
		}
		c.Type = categorization.CategoryType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadRules(ctx context.Context) ([]categorization.KeywordRule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, keyword, category_id
		FROM keyword_rules
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword rules: %w", err)
	}
	defer rows.Close()

	var out []categorization.KeywordRule
	for rows.Next() {
		var r categorization.KeywordRule
		if err := rows.Scan(&r.ID, &r.Keyword, &r.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan keyword rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadTransactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(to_char(date, 'YYYY-MM-DD'), ''), description, amount::text,
		       category_id, note, amount_parse_failed, batch_id, imported_at
		FROM transactions
		ORDER BY imported_at DESC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		var date, amount string
		if err := rows.Scan(&tx.ID, &date, &tx.Description, &amount,
			&tx.CategoryID, &tx.Note, &tx.AmountParseFailed, &tx.BatchID, &tx.ImportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if date != "" {
			if tx.Date, err = time.Parse(dateLayout, date); err != nil {
				return nil, fmt.Errorf("transaction %s has invalid date %q: %w", tx.ID, date, err)
			}
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", tx.ID, amount, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *PostgresStore) loadMappings(ctx context.Context) ([]RememberedMapping, error) {
	rows, err := s.db.Query(ctx, `
		SELECT fingerprint, mapping::text, preset_key, updated_at
		FROM column_mappings
		ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query column mappings: %w", err)
	}
	defer rows.Close()

	var out []RememberedMapping
	for rows.Next() {
		var m RememberedMapping
		var raw string
		if err := rows.Scan(&m.Fingerprint, &raw, &m.PresetKey, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan column mapping: %w", err)
		}
		m.Mapping = layout.NewMapping()
		if err := json.Unmarshal([]byte(raw), &m.Mapping); err != nil {
			return nil, fmt.Errorf("column mapping %s is corrupt: %w", m.Fingerprint, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendTransactions inserts the batch in one transaction.
func (s *PostgresStore) AppendTransactions(ctx context.Context, txs []Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback(ctx)
	}()

	for _, tx := range txs {
		_, err := dbTx.Exec(ctx, `
			INSERT INTO transactions
				(id, date, description, amount, category_id, note, amount_parse_failed, batch_id, imported_at)
			VALUES ($1, NULLIF($2, '')::date, $3, $4::text::numeric, $5, $6, $7, $8, $9)`,
			tx.ID, formatDate(tx.Date), tx.Description, tx.Amount.String(),
			tx.CategoryID, tx.Note, tx.AmountParseFailed, tx.BatchID, tx.ImportedAt)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, tx Transaction) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions SET category_id = $2, note = $3
		WHERE id = $1`,
		tx.ID, tx.CategoryID, tx.Note)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) SaveRule(ctx context.Context, rule categorization.KeywordRule) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO keyword_rules (id, keyword, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET keyword = EXCLUDED.keyword, category_id = EXCLUDED.category_id`,
		rule.ID, rule.Keyword, rule.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to save keyword rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveCategory(ctx context.Context, c categorization.Category) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO categories (id, name, color, budget, type)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, color = EXCLUDED.color,
		    budget = EXCLUDED.budget, type = EXCLUDED.type`,
		c.ID, c.Name, c.Color, c.Budget.String(), string(c.Type))
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveMapping(ctx context.Context, m RememberedMapping) error {
	raw, err := json.Marshal(m.Mapping)
	if err != nil {
		return fmt.Errorf("failed to encode column mapping: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO column_mappings (fingerprint, mapping, preset_key, updated_at)
		VALUES ($1, $2::jsonb, $3, $4)
		ON CONFLICT (fingerprint) DO UPDATE
		SET mapping = EXCLUDED.mapping, preset_key = EXCLUDED.preset_key, updated_at = EXCLUDED.updated_at`,
		m.Fingerprint, string(raw), m.PresetKey, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save column mapping: %w", err)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
