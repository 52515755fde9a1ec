// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"ledgerpay/internal/domain"
	"ledgerpay/internal/repository"
	"ledgerpay/internal/util"
)

const transactionColumns = `id, account_id, type, purpose, amount, reference, description, balance_before, balance_after, created_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// Create inserts a new ledger entry using the provided DBExecutor.
func (r *TransactionRepository) Create(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (account_id, type, purpose, amount, reference, description, balance_before, balance_after, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		transaction.AccountID,
		transaction.Type,
		transaction.Purpose,
		transaction.Amount,
		transaction.Reference,
		transaction.Description,
		transaction.BalanceBefore,
		transaction.BalanceAfter,
		transaction.CreatedAt,
	).Scan(&transaction.ID)

	if err != nil {
		if v, ok := violation(err); ok {
			if v.IsForeignKey() {
				return util.ErrAccountNotFound
			}
			if v.IsUnique() {
				return util.ErrDuplicateReference
			}
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a ledger entry by its ID using the provided DBExecutor.
func (r *TransactionRepository) GetByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	err := q.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// FindOne retrieves the newest ledger entry matching the filter.
func (r *TransactionRepository) FindOne(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter) (*domain.Transaction, error) {
	where, args := buildTransactionWhere(filter)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY created_at DESC, id DESC LIMIT 1`

	var transaction domain.Transaction
	err := q.GetContext(ctx, &transaction, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &transaction, nil
}

// Find retrieves ledger entries matching the filter, newest first, plus the
// total match count for pagination.
func (r *TransactionRepository) Find(ctx context.Context, q repository.DBExecutor, filter repository.TransactionFilter) ([]domain.Transaction, int64, error) {
	where, args := buildTransactionWhere(filter)

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transactions` + where
	if err := q.GetContext(ctx, &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	transactions := []domain.Transaction{}
	if err := q.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return transactions, totalCount, nil
}

// UpdateDescription patches the free-text annotation of an entry. Financial
// fields are never updated.
func (r *TransactionRepository) UpdateDescription(ctx context.Context, q repository.DBExecutor, id int64, description *string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `UPDATE transactions SET description = $1 WHERE id = $2 RETURNING ` + transactionColumns
	err := q.GetContext(ctx, &transaction, query, description, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update transaction %d description: %w", id, err)
	}
	return &transaction, nil
}

// Delete removes a ledger entry.
func (r *TransactionRepository) Delete(ctx context.Context, q repository.DBExecutor, id int64) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected deleting transaction %d: %w", id, err)
	}
	return rowsAffected, nil
}

// buildTransactionWhere translates a TransactionFilter into a WHERE clause
// with positional arguments.
func buildTransactionWhere(filter repository.TransactionFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}
	if filter.AccountID != nil {
		add("account_id = ", *filter.AccountID)
	}
	if filter.Type != nil {
		add("type = ", *filter.Type)
	}
	if filter.Purpose != nil {
		add("purpose = ", *filter.Purpose)
	}
	if filter.Reference != nil {
		add("reference = ", *filter.Reference)
	}
	if p := filter.Amount; p != nil {
		switch p.Op {
		case repository.AmountGTE:
			add("amount >= ", p.Value)
		case repository.AmountLTE:
			add("amount <= ", p.Value)
		case repository.AmountBetween:
			add("amount >= ", p.Value)
			add("amount <= ", p.Upper)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
