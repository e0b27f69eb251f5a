package domain

import "time"

// Session is a live pair of bearer credentials bound to a user and an optional active account.
// It is reachable by both AccessToken and RefreshToken.
type Session struct {
	ID               string
	UserID           int64
	ActiveAccountID  *int64 // nil when no account is selected
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	CreatedAt        time.Time
}

// AccessExpired reports whether the access token is no longer valid at now. Expiry is exclusive.
func (s *Session) AccessExpired(now time.Time) bool {
	return !now.Before(s.AccessExpiresAt)
}

// RefreshExpired reports whether the refresh token is no longer valid at now. Expiry is exclusive.
func (s *Session) RefreshExpired(now time.Time) bool {
	return !now.Before(s.RefreshExpiresAt)
}

// Clone returns a deep copy so callers never share the stored ActiveAccountID pointer.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.ActiveAccountID != nil {
		id := *s.ActiveAccountID
		c.ActiveAccountID = &id
	}
	return &c
}
