package repository

import (
	"context"
	"errors"

	"multitenant-cms/internal/membership/domain"
)

// ErrMembershipExists is returned by Create when the (account, user) pair already has a membership.
var ErrMembershipExists = errors.New("membership already exists")

// Repository defines persistence for memberships.
type Repository interface {
	// GetByUserAndAccount returns the membership for the exact pair, or nil if none exists.
	GetByUserAndAccount(ctx context.Context, userID, accountID int64) (*domain.Membership, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Membership, error)
	// List returns all memberships ordered by id.
	List(ctx context.Context) ([]*domain.Membership, error)
	// Create persists m and sets m.ID.
	Create(ctx context.Context, m *domain.Membership) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteByAccount(ctx context.Context, accountID int64) error
}
