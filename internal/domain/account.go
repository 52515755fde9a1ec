// internal/domain/account.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations

	"ledgerpay/internal/util"
)

// PINHasher derives and verifies one-way hashes of account PINs.
// The concrete algorithm lives in internal/security.
type PINHasher interface {
	Hash(pin string) (string, error)
	// Compare returns util.ErrInvalidPIN when pin does not match hash.
	Compare(hash, pin string) error
}

// Account represents a user's ledger account. Exactly one exists per owner.
type Account struct {
	ID        int64           `db:"id" json:"id"`                 // Primary key, BIGSERIAL in DB
	OwnerID   int64           `db:"owner_id" json:"owner_id"`     // Foreign key to User, unique
	PINHash   string          `db:"pin_hash" json:"-"`            // One-way hash of the 4-digit PIN, never serialized
	Balance   decimal.Decimal `db:"balance" json:"balance"`       // Current balance, NUMERIC(20, 2) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"` // Timestamp of last update
}

// AccountView is the outward projection of an Account. It carries no PIN
// material and is safe to return from any API surface.
type AccountView struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewAccount creates a new Account for ownerID, hashing the PIN up front.
// The PIN must be exactly four digits.
func NewAccount(ownerID int64, pin string, hasher PINHasher) (*Account, error) {
	if !ValidPIN(pin) {
		return nil, fmt.Errorf("pin must be 4 digits: %w", util.ErrInvalidInput)
	}
	hash, err := hasher.Hash(pin)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}
	now := time.Now().UTC()
	return &Account{
		OwnerID:   ownerID,
		PINHash:   hash,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Redacted returns the account projection with PIN material omitted.
func (a *Account) Redacted() AccountView {
	return AccountView{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
