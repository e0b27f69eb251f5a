package domain

import (
	"errors"
	"time"
)

// User is the core user entity. PasswordHash is a bcrypt hash and must never leave the service boundary.
type User struct {
	ID           int64
	Email        string
	FullName     string
	IsActive     bool
	IsSuperuser  bool
	PasswordHash string
	CreatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
