// internal/repository/account_repo.go
package repository

import (
	"context"

	"ledgerpay/internal/domain"

	"github.com/shopspring/decimal"
)

// AccountFilter narrows List results.
type AccountFilter struct {
	OwnerID    *int64
	MinBalance *decimal.Decimal
	MaxBalance *decimal.Decimal
	Limit      int
	Offset     int
}

// AccountRepository defines the interface for account data operations.
// Every method takes a DBExecutor so it can run on a plain connection or
// inside a caller-supplied transaction.
type AccountRepository interface {
	// Create inserts a new account. Returns util.ErrDuplicateAccount when
	// the owner already has one.
	Create(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetByID retrieves an account by its ID.
	GetByID(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// GetByIDForUpdate retrieves an account by ID holding a row lock for the
	// duration of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// GetByOwner retrieves the account owned by ownerID.
	GetByOwner(ctx context.Context, q DBExecutor, ownerID int64) (*domain.Account, error)
	// GetByOwnerForUpdate is GetByOwner with a row lock.
	GetByOwnerForUpdate(ctx context.Context, q DBExecutor, ownerID int64) (*domain.Account, error)
	// List retrieves accounts matching the filter.
	List(ctx context.Context, q DBExecutor, filter AccountFilter) ([]domain.Account, error)
	// UpdateBalance applies a signed delta to the account's balance.
	UpdateBalance(ctx context.Context, q DBExecutor, accountID int64, delta decimal.Decimal) error
	// Delete removes an account. Returns util.ErrAccountHasHistory when
	// ledger entries still reference it.
	Delete(ctx context.Context, q DBExecutor, id int64) (int64, error)
}
