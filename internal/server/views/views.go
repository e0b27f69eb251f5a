// Package views holds the JSON shapes returned by the HTTP API.
package views

import (
	"time"

	accountdomain "multitenant-cms/internal/account/domain"
	membershipdomain "multitenant-cms/internal/membership/domain"
	userdomain "multitenant-cms/internal/user/domain"
)

type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// User never carries the password hash.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

type Membership struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserWithMemberships is a user together with every membership it holds.
type UserWithMemberships struct {
	User
	Memberships []Membership `json:"memberships"`
}

func FromAccount(a *accountdomain.Account) *Account {
	if a == nil {
		return nil
	}
	return &Account{ID: a.ID, Name: a.Name, Email: a.Email, IsActive: a.IsActive, CreatedAt: a.CreatedAt}
}

func FromUser(u *userdomain.User) User {
	return User{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

func FromMembership(m *membershipdomain.Membership) Membership {
	return Membership{ID: m.ID, AccountID: m.AccountID, UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt}
}
