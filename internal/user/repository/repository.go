package repository

import (
	"context"
	"errors"

	"multitenant-cms/internal/user/domain"
)

// ErrEmailTaken is returned by Create when another user already has the email.
var ErrEmailTaken = errors.New("email already registered")

// Repository defines persistence for users.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail returns the user with exactly this email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns all users ordered by id.
	List(ctx context.Context) ([]*domain.User, error)
	// Create persists u and sets u.ID.
	Create(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
}
