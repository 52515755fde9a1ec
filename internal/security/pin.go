// internal/security/pin.go
package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ledgerpay/internal/util"
)

// BcryptPINHasher implements domain.PINHasher using bcrypt.
type BcryptPINHasher struct {
	cost int
}

// NewBcryptPINHasher creates a hasher with the given bcrypt cost.
// A cost of 0 falls back to bcrypt.DefaultCost.
func NewBcryptPINHasher(cost int) *BcryptPINHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPINHasher{cost: cost}
}

// Hash derives a one-way hash of pin.
func (h *BcryptPINHasher) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// Compare verifies pin against a stored hash. A mismatch is reported as
// util.ErrInvalidPIN; any other bcrypt failure is passed through.
func (h *BcryptPINHasher) Compare(hash, pin string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return util.ErrInvalidPIN
	}
	return fmt.Errorf("failed to compare pin hash: %w", err)
}
