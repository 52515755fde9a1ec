// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledgerpay/internal/domain"
	"ledgerpay/internal/repository"
	"ledgerpay/internal/util"

	"github.com/shopspring/decimal"
)

const accountColumns = `id, owner_id, pin_hash, balance, created_at, updated_at`

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// Create inserts a new account using the provided DBExecutor.
func (r *AccountRepository) Create(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO accounts (owner_id, pin_hash, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		account.OwnerID, account.PINHash, account.Balance, account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		if v, ok := violation(err); ok {
			if v.IsUnique() {
				return util.ErrDuplicateAccount
			}
			if v.IsForeignKey() {
				return util.ErrUserNotFound
			}
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID using the provided DBExecutor.
func (r *AccountRepository) GetByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	return r.getOne(ctx, q,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves an account by ID holding a row lock for the
// duration of the surrounding transaction.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	return r.getOne(ctx, q,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

// GetByOwner retrieves the account owned by ownerID using the provided DBExecutor.
func (r *AccountRepository) GetByOwner(ctx context.Context, q repository.DBExecutor, ownerID int64) (*domain.Account, error) {
	return r.getOne(ctx, q,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1`, ownerID)
}

// GetByOwnerForUpdate is GetByOwner with a row lock.
func (r *AccountRepository) GetByOwnerForUpdate(ctx context.Context, q repository.DBExecutor, ownerID int64) (*domain.Account, error) {
	return r.getOne(ctx, q,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 FOR UPDATE`, ownerID)
}

func (r *AccountRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, arg interface{}) (*domain.Account, error) {
	var account domain.Account
	err := q.GetContext(ctx, &account, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// List retrieves accounts matching the filter, oldest first.
func (r *AccountRepository) List(ctx context.Context, q repository.DBExecutor, filter repository.AccountFilter) ([]domain.Account, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}
	if filter.OwnerID != nil {
		add("owner_id = ", *filter.OwnerID)
	}
	if filter.MinBalance != nil {
		add("balance >= ", *filter.MinBalance)
	}
	if filter.MaxBalance != nil {
		add("balance <= ", *filter.MaxBalance)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	accounts := []domain.Account{}
	if err := q.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateBalance applies a signed delta to the account's balance using the
// provided DBExecutor. The accounts_balance_check constraint is the last
// line of defense against overdraft; the engine checks sufficiency first
// under a row lock.
func (r *AccountRepository) UpdateBalance(ctx context.Context, q repository.DBExecutor, accountID int64, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), accountID)
	if err != nil {
		if v, ok := violation(err); ok && v.IsCheck() {
			return util.ErrInsufficientFunds
		}
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for account %d: %w", accountID, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account. Accounts with ledger history are protected by
// the transactions FK and surface as util.ErrAccountHasHistory.
func (r *AccountRepository) Delete(ctx context.Context, q repository.DBExecutor, id int64) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		if v, ok := violation(err); ok && v.IsForeignKey() {
			return 0, util.ErrAccountHasHistory
		}
		return 0, fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected deleting account %d: %w", id, err)
	}
	return rowsAffected, nil
}
