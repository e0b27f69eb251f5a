package service

import (
	"context"
	"errors"
	"fmt"

	accountdomain "multitenant-cms/internal/account/domain"
	"multitenant-cms/internal/security"
	userdomain "multitenant-cms/internal/user/domain"
)

// Sentinel errors for credential checks; the HTTP layer maps them to 401 and 403.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("user account is inactive")
)

// UserRepo is the minimal user repository needed by the credential store.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// AccountRepo is the minimal account repository needed by the credential store.
type AccountRepo interface {
	GetByID(ctx context.Context, id int64) (*accountdomain.Account, error)
}

// CredentialStore verifies login secrets and looks up users and accounts by id.
type CredentialStore struct {
	users    UserRepo
	accounts AccountRepo
	hasher   *security.Hasher
}

// NewCredentialStore returns a CredentialStore over the given repositories.
func NewCredentialStore(users UserRepo, accounts AccountRepo, hasher *security.Hasher) *CredentialStore {
	return &CredentialStore{users: users, accounts: accounts, hasher: hasher}
}

// Authenticate returns the user whose email matches exactly and whose password hash matches secret.
// An unknown email and a wrong secret both yield ErrInvalidCredentials; a correct secret for an inactive
// user yields ErrAccountInactive.
func (c *CredentialStore) Authenticate(ctx context.Context, email, secret string) (*userdomain.User, error) {
	u, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if u == nil {
		_ = c.hasher.CompareDummy(secret)
		return nil, ErrInvalidCredentials
	}
	if err := c.hasher.Compare(u.PasswordHash, secret); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return u, nil
}

// LookupUser returns the user for id, or nil if not found.
func (c *CredentialStore) LookupUser(ctx context.Context, id int64) (*userdomain.User, error) {
	u, err := c.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, err)
	}
	return u, nil
}

// LookupAccount returns the account for id, or nil if not found.
func (c *CredentialStore) LookupAccount(ctx context.Context, id int64) (*accountdomain.Account, error) {
	a, err := c.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup account %d: %w", id, err)
	}
	return a, nil
}
