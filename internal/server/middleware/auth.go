package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	identityservice "multitenant-cms/internal/identity/service"
	sessiondomain "multitenant-cms/internal/session/domain"
	sessionservice "multitenant-cms/internal/session/service"
	userdomain "multitenant-cms/internal/user/domain"
)

// Credential errors raised before any session lookup.
var (
	ErrMissingCredential   = errors.New("authorization header is required")
	ErrMalformedCredential = errors.New("authorization header must be a bearer token")
)

// ErrorWriter renders err as the response to r.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AccessValidator resolves an access token to its live session.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*sessiondomain.Session, error)
}

// UserLookup returns the user for id, or nil if not found.
type UserLookup interface {
	LookupUser(ctx context.Context, id int64) (*userdomain.User, error)
}

// BearerToken extracts the token from an Authorization header value. The scheme is matched
// case-insensitively and the token must be non-empty.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingCredential
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", ErrMalformedCredential
	}
	return token, nil
}

// Authenticate validates the bearer access token of each request and stores the session and its user in
// the request context. Failures are rendered by fail and stop the chain.
func Authenticate(sessions AccessValidator, users UserLookup, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				fail(w, r, err)
				return
			}
			sess, err := sessions.ValidateAccess(ctx, token)
			if err != nil {
				fail(w, r, err)
				return
			}
			user, err := users.LookupUser(ctx, sess.UserID)
			if err != nil {
				fail(w, r, err)
				return
			}
			if user == nil {
				fail(w, r, sessionservice.ErrUserGone)
				return
			}
			if !user.IsActive {
				fail(w, r, identityservice.ErrAccountInactive)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, sess, user)))
		})
	}
}
