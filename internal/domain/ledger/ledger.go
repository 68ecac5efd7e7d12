package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
)

// Ledger is the in-memory view of the persisted state. Reads come from the
// cached state; every mutation goes to the store first and is applied to the
// cache only when the store accepted it.
type Ledger struct {
	mu     sync.RWMutex
	store  Store
	logger *slog.Logger
	state  State
	now    func() time.Time
}

func New(store Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// Load reads the store. An empty category set is seeded with the default
// catalog, and category ids from older catalog versions are rewritten.
func (l *Ledger) Load(ctx context.Context) error {
	st, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	if len(st.Categories) == 0 {
		st.Categories = categorization.DefaultCategories()
		for _, c := range st.Categories {
			if err := l.store.SaveCategory(ctx, c); err != nil {
				return fmt.Errorf("failed to seed categories: %w", err)
			}
		}
		l.logger.Info("seeded default categories",
			slog.Int("count", len(st.Categories)),
			slog.String("catalog_version", categorization.CatalogVersion))
	}

	migrated := 0
	for i := range st.Rules {
		if id := categorization.MigrateCategoryID(st.Rules[i].CategoryID); id != st.Rules[i].CategoryID {
			st.Rules[i].CategoryID = id
			if err := l.store.SaveRule(ctx, st.Rules[i]); err != nil {
				return fmt.Errorf("failed to migrate rule %s: %w", st.Rules[i].ID, err)
			}
			migrated++
		}
	}
	for i := range st.Transactions {
		if id := categorization.MigrateCategoryID(st.Transactions[i].CategoryID); id != st.Transactions[i].CategoryID {
			st.Transactions[i].CategoryID = id
			if err := l.store.UpdateTransaction(ctx, st.Transactions[i]); err != nil {
				return fmt.Errorf("failed to migrate transaction %s: %w", st.Transactions[i].ID, err)
			}
			migrated++
		}
	}
	if migrated > 0 {
		l.logger.Info("migrated legacy category ids", slog.Int("records", migrated))
	}

	l.mu.Lock()
	l.state = st
	l.mu.Unlock()
	return nil
}

// Transactions returns all transactions, newest import first.
func (l *Ledger) Transactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Transaction(nil), l.state.Transactions...)
}

func (l *Ledger) Categories() []categorization.Category {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]categorization.Category(nil), l.state.Categories...)
}

// Rules returns the user keyword rules in evaluation order.
func (l *Ledger) Rules() []categorization.KeywordRule {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]categorization.KeywordRule(nil), l.state.Rules...)
}

// Classifier builds a classifier from the current categories and rules.
func (l *Ledger) Classifier() *categorization.Classifier {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return categorization.NewClassifier(l.state.Categories, l.state.Rules)
}

// Append stores a batch ahead of everything already in the ledger.
func (l *Ledger) Append(ctx context.Context, txs []Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.AppendTransactions(ctx, txs); err != nil {
		return fmt.Errorf("failed to append transactions: %w", err)
	}

	merged := make([]Transaction, 0, len(txs)+len(l.state.Transactions))
	merged = append(merged, txs...)
	l.state.Transactions = append(merged, l.state.Transactions...)
	return nil
}

// Recategorize changes the category of one transaction.
func (l *Ledger) Recategorize(ctx context.Context, id, categoryID string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasCategory(categoryID) {
		return Transaction{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}
	return l.updateLocked(ctx, id, func(tx *Transaction) { tx.CategoryID = categoryID })
}

// SetNote replaces the free-text note of one transaction.
func (l *Ledger) SetNote(ctx context.Context, id, note string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.updateLocked(ctx, id, func(tx *Transaction) { tx.Note = note })
}

func (l *Ledger) updateLocked(ctx context.Context, id string, fn func(*Transaction)) (Transaction, error) {
	for i := range l.state.Transactions {
		if l.state.Transactions[i].ID != id {
			continue
		}
		tx := l.state.Transactions[i]
		fn(&tx)
		if err := l.store.UpdateTransaction(ctx, tx); err != nil {
			return Transaction{}, err
		}
		l.state.Transactions[i] = tx
		return tx, nil
	}
	return Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// AddRule appends a user keyword rule. Later rules lose to earlier ones.
func (l *Ledger) AddRule(ctx context.Context, keyword, categoryID string) (categorization.KeywordRule, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return categorization.KeywordRule{}, fmt.Errorf("%w: keyword is empty", ErrInvalidRule)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasCategory(categoryID) {
		return categorization.KeywordRule{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	rule := categorization.KeywordRule{
		ID:         "kw_" + uuid.NewString(),
		Keyword:    keyword,
		CategoryID: categoryID,
	}
	if err := l.store.SaveRule(ctx, rule); err != nil {
		return categorization.KeywordRule{}, err
	}
	l.state.Rules = append(l.state.Rules, rule)
	return rule, nil
}

// AddCategory adds a user category. Ids must be unique.
func (l *Ledger) AddCategory(ctx context.Context, c categorization.Category) error {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" || c.Budget.IsNegative() {
		return fmt.Errorf("invalid category %q", c.ID)
	}
	if c.Type == "" {
		c.Type = categorization.TypeExpense
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasCategory(c.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateCategory, c.ID)
	}
	if err := l.store.SaveCategory(ctx, c); err != nil {
		return err
	}
	l.state.Categories = append(l.state.Categories, c)
	return nil
}

// Mapping returns the remembered mapping for a header fingerprint.
func (l *Ledger) Mapping(fingerprint string) (RememberedMapping, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.state.Mappings {
		if m.Fingerprint == fingerprint {
			return m, true
		}
	}
	return RememberedMapping{}, false
}

// SaveMapping remembers a confirmed mapping for its fingerprint.
func (l *Ledger) SaveMapping(ctx context.Context, m RememberedMapping) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = l.now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SaveMapping(ctx, m); err != nil {
		return err
	}
	for i := range l.state.Mappings {
		if l.state.Mappings[i].Fingerprint == m.Fingerprint {
			l.state.Mappings[i] = m
			return nil
		}
	}
	l.state.Mappings = append(l.state.Mappings, m)
	return nil
}

func (l *Ledger) hasCategory(id string) bool {
	for _, c := range l.state.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
