// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"ledgerpay/internal/domain"

	"github.com/shopspring/decimal"
)

// AmountOp is a comparison operator for amount-range queries.
type AmountOp string

const (
	AmountGTE     AmountOp = "gte"
	AmountLTE     AmountOp = "lte"
	AmountBetween AmountOp = "between"
)

// AmountPredicate filters ledger entries by amount. Upper is only consulted
// for AmountBetween.
type AmountPredicate struct {
	Op    AmountOp
	Value decimal.Decimal
	Upper decimal.Decimal
}

// TransactionFilter narrows Find/FindOne results. Nil fields match anything.
type TransactionFilter struct {
	AccountID *int64
	Type      *domain.EntryType
	Purpose   *domain.Purpose
	Reference *string
	Amount    *AmountPredicate
	Limit     int
	Offset    int
}

// TransactionRepository defines the interface for ledger entry data
// operations. Entries are insert-only with respect to financial fields;
// UpdateDescription is the single mutable surface.
type TransactionRepository interface {
	// Create inserts a new ledger entry. Returns util.ErrAccountNotFound when
	// the referenced account does not exist and util.ErrDuplicateReference on
	// a reference collision.
	Create(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetByID retrieves a ledger entry by its ID.
	GetByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// FindOne retrieves the newest entry matching the filter.
	FindOne(ctx context.Context, q DBExecutor, filter TransactionFilter) (*domain.Transaction, error)
	// Find retrieves entries matching the filter, newest first, together with
	// the total match count for pagination.
	Find(ctx context.Context, q DBExecutor, filter TransactionFilter) ([]domain.Transaction, int64, error)
	// UpdateDescription patches the free-text annotation of an entry.
	UpdateDescription(ctx context.Context, q DBExecutor, id int64, description *string) (*domain.Transaction, error)
	// Delete removes an entry. Administrative escape hatch only; the engine
	// never deletes ledger entries.
	Delete(ctx context.Context, q DBExecutor, id int64) (int64, error)
}
