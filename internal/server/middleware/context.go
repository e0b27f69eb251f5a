package middleware

import (
	"context"

	sessiondomain "multitenant-cms/internal/session/domain"
	userdomain "multitenant-cms/internal/user/domain"
)

type contextKey struct{ name string }

var (
	sessionKey  = contextKey{"session"}
	userKey     = contextKey{"user"}
	clientIPKey = contextKey{"client_ip"}
)

// WithIdentity returns a context carrying the authenticated session and its user.
func WithIdentity(ctx context.Context, s *sessiondomain.Session, u *userdomain.User) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	return context.WithValue(ctx, userKey, u)
}

// SessionFrom returns the session set by Authenticate, or nil, false.
func SessionFrom(ctx context.Context) (*sessiondomain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*sessiondomain.Session)
	return s, ok && s != nil
}

// UserFrom returns the user set by Authenticate, or nil, false.
func UserFrom(ctx context.Context) (*userdomain.User, bool) {
	u, ok := ctx.Value(userKey).(*userdomain.User)
	return u, ok && u != nil
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP stored by the ClientIP middleware, or "".
// It has the audit.IPExtractor signature.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
