package repository

import (
	"context"
	"errors"
	"time"

	"multitenant-cms/internal/session/domain"
)

var (
	// ErrNotFound is returned when the session to update or rotate no longer exists.
	ErrNotFound = errors.New("session not found")
	// ErrTokenConflict is returned when a new session reuses a live access or refresh token.
	ErrTokenConflict = errors.New("session token already in use")
)

// Repository defines persistence for sessions. Each session is reachable by its access token and by its
// refresh token; implementations keep both lookups consistent under concurrent use.
type Repository interface {
	// Create stores s under both of its tokens.
	Create(ctx context.Context, s *domain.Session) error
	// GetByAccessToken returns the session for token, or nil if not found.
	GetByAccessToken(ctx context.Context, token string) (*domain.Session, error)
	// GetByRefreshToken returns the session for token, or nil if not found.
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	// Delete removes the session and both of its tokens. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// Rotate deletes the session identified by oldID and oldRefreshToken and stores next in one step.
	// Returns ErrNotFound when the old session was already deleted or rotated.
	Rotate(ctx context.Context, oldID, oldRefreshToken string, next *domain.Session) error
	// SetActiveAccount changes the active account of a live session. Returns ErrNotFound if it is gone.
	SetActiveAccount(ctx context.Context, id string, accountID *int64) error
	// DeleteExpired removes sessions whose access and refresh tokens have both expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// DeleteByUser removes every session of userID.
	DeleteByUser(ctx context.Context, userID int64) error
	// ClearActiveAccount unsets the active account on sessions pointing at accountID.
	ClearActiveAccount(ctx context.Context, accountID int64) error
}
