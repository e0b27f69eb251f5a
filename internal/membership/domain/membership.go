package domain

import (
	"time"
)

// Membership grants a user a role inside an account. At most one membership exists per (account, user).
type Membership struct {
	ID        int64
	AccountID int64
	UserID    int64
	Role      string
	CreatedAt time.Time
}

// Roles are free-form strings; these are the ones the API itself checks for.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)
