package ledger

import (
	"context"
	"errors"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrInvalidRule       = errors.New("invalid keyword rule")
)

// Store persists ledger state. Implementations need not be safe for
// concurrent use; Ledger serializes every call.
type Store interface {
	Load(ctx context.Context) (State, error)
	// AppendTransactions stores a batch ahead of everything already stored,
	// keeping the batch's own order.
	AppendTransactions(ctx context.Context, txs []Transaction) error
	UpdateTransaction(ctx context.Context, tx Transaction) error
	SaveRule(ctx context.Context, rule categorization.KeywordRule) error
	SaveCategory(ctx context.Context, c categorization.Category) error
	SaveMapping(ctx context.Context, m RememberedMapping) error
}
