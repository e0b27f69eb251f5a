package middleware

import (
	"context"
	"net/http"

	userdomain "multitenant-cms/internal/user/domain"
)

// RoleChecker decides whether user, acting in activeAccountID, holds one of allowed.
type RoleChecker interface {
	RequireRole(ctx context.Context, user *userdomain.User, activeAccountID *int64, allowed []string) error
}

// RequireRole admits requests whose user holds one of roles in the session's active account. Superusers
// always pass; with no roles only superusers pass. Must run after Authenticate.
func RequireRole(checker RoleChecker, fail ErrorWriter, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, ok := SessionFrom(ctx)
			user, uok := UserFrom(ctx)
			if !ok || !uok {
				fail(w, r, ErrMissingCredential)
				return
			}
			if err := checker.RequireRole(ctx, user, sess.ActiveAccountID, roles); err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
