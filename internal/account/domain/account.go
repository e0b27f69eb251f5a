package domain

import (
	"errors"
	"time"
)

// Account is a tenant. Users act inside an account through a membership.
type Account struct {
	ID        int64
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	return nil
}
