package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
)

// FileStore keeps the whole state in one JSON document. Every write replaces
// the file atomically through a temp file and rename.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode ledger file %s: %w", s.path, err)
	}
	return st, nil
}

func (s *FileStore) AppendTransactions(ctx context.Context, txs []Transaction) error {
	return s.update(ctx, func(st *State) error {
		merged := make([]Transaction, 0, len(txs)+len(st.Transactions))
		merged = append(merged, txs...)
		st.Transactions = append(merged, st.Transactions...)
		return nil
	})
}

func (s *FileStore) UpdateTransaction(ctx context.Context, tx Transaction) error {
	return s.update(ctx, func(st *State) error {
		for i := range st.Transactions {
			if st.Transactions[i].ID == tx.ID {
				st.Transactions[i] = tx
				return nil
			}
		}
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrNotFound)
	})
}

func (s *FileStore) SaveRule(ctx context.Context, rule categorization.KeywordRule) error {
	return s.update(ctx, func(st *State) error {
		for i := range st.Rules {
			if st.Rules[i].ID == rule.ID {
				st.Rules[i] = rule
				return nil
			}
		}
		st.Rules = append(st.Rules, rule)
		return nil
	})
}

func (s *FileStore) SaveCategory(ctx context.Context, c categorization.Category) error {
	return s.update(ctx, func(st *State) error {
		for i := range st.Categories {
			if st.Categories[i].ID == c.ID {
				st.Categories[i] = c
				return nil
			}
		}
		st.Categories = append(st.Categories, c)
		return nil
	})
}

func (s *FileStore) SaveMapping(ctx context.Context, m RememberedMapping) error {
	return s.update(ctx, func(st *State) error {
		for i := range st.Mappings {
			if st.Mappings[i].Fingerprint == m.Fingerprint {
				st.Mappings[i] = m
				return nil
			}
		}
		st.Mappings = append(st.Mappings, m)
		return nil
	})
}

func (s *FileStore) update(ctx context.Context, fn func(*State) error) error {
	st, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&st); err != nil {
		return err
	}
	return s.write(st)
}

func (s *FileStore) write(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}
