// internal/repository/user_repo.go
package repository

import (
	"context"

	"ledgerpay/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// Create adds a new user. Returns util.ErrDuplicateUser when the
	// username is taken.
	Create(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetByID retrieves a user by their ID.
	GetByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, q DBExecutor, username string) (*domain.User, error)
}
