// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrDestinationNotFound = errors.New("destination account not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid input provided")
	ErrInvalidPIN          = errors.New("invalid pin")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSelfTransfer        = errors.New("cannot transfer to own account")
	ErrDuplicateAccount    = errors.New("owner already has an account")
	ErrDuplicateUser       = errors.New("username already taken")
	ErrDuplicateReference  = errors.New("transaction reference already exists")
	ErrAccountHasHistory   = errors.New("account has transaction history")
)

// IsError reports whether err matches the target sentinel, unwrapping as needed.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
