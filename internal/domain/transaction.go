// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// EntryType defines the direction of a ledger entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// Purpose defines the business operation a ledger entry records.
type Purpose string

const (
	PurposeDeposit    Purpose = "deposit"
	PurposeWithdrawal Purpose = "withdrawal"
	PurposeTransfer   Purpose = "transfer"
)

// Transaction is one immutable ledger entry, charged against exactly one
// account. A transfer produces two entries (a debit on the source and a
// credit on the destination) linked by a shared Reference. All financial
// fields are write-once; only Description may be patched afterwards.
type Transaction struct {
	ID            int64           `db:"id" json:"id"`                         // Primary key, BIGSERIAL in DB
	AccountID     int64           `db:"account_id" json:"account_id"`         // Owning account
	Type          EntryType       `db:"type" json:"type"`                     // credit or debit
	Purpose       Purpose         `db:"purpose" json:"purpose"`               // deposit, withdrawal or transfer
	Amount        decimal.Decimal `db:"amount" json:"amount"`                 // Positive magnitude, NUMERIC(20, 2) in DB
	Reference     string          `db:"reference" json:"reference"`           // Correlation token, shared by transfer pairs
	Description   *string         `db:"description" json:"description"`       // Optional annotation, mutable
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"` // Account balance before this entry
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`   // Account balance after this entry
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`         // Timestamp of record creation
}

// NewTransaction creates a pending ledger entry for accountID.
func NewTransaction(
	accountID int64,
	entryType EntryType,
	purpose Purpose,
	amount decimal.Decimal,
	balanceBefore decimal.Decimal,
	balanceAfter decimal.Decimal,
	reference string,
	description *string,
) *Transaction {
	return &Transaction{
		AccountID:     accountID,
		Type:          entryType,
		Purpose:       purpose,
		Amount:        amount,
		Reference:     reference,
		Description:   description,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now().UTC(),
	}
}
