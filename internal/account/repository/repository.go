package repository

import (
	"context"
	"errors"

	"multitenant-cms/internal/account/domain"
)

// ErrAccountExists is returned by Create when the account email is already taken.
var ErrAccountExists = errors.New("account already exists")

// Repository defines persistence for accounts.
type Repository interface {
	// GetByID returns the account for id, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	// List returns all accounts ordered by id.
	List(ctx context.Context) ([]*domain.Account, error)
	// Create persists a and sets a.ID.
	Create(ctx context.Context, a *domain.Account) error
	Delete(ctx context.Context, id int64) error
}
