package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"multitenant-cms/internal/audit"
)

// ClientIPMiddleware stores the request's remote host in the context for the audit logger. Run it after
// chi's RealIP so proxy headers are honoured.
func ClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if ip == "" {
			ip = "unknown"
		}
		next.ServeHTTP(w, r.WithContext(WithClientIP(r.Context(), ip)))
	})
}

// Audit records one audit entry per authenticated request after the handler ran. Action and resource are
// derived from the chi route pattern. Must run after Authenticate; unauthenticated requests are skipped.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			ctx := r.Context()
			sess, ok := SessionFrom(ctx)
			user, uok := UserFrom(ctx)
			if !ok || !uok || logger == nil {
				return
			}
			pattern, ok := routePattern(r)
			if !ok {
				pattern = r.URL.Path
			}
			ar := audit.ParseRoute(r.Method, pattern)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			meta, _ := json.Marshal(map[string]string{"path": r.URL.Path, "status": strconv.Itoa(status)})
			logger.LogEvent(ctx, audit.Event{
				UserID:    &user.ID,
				AccountID: sess.ActiveAccountID,
				SessionID: sess.ID,
				Action:    ar.Action,
				Resource:  ar.Resource,
				Metadata:  string(meta),
			})
		})
	}
}

// routePattern returns the chi pattern matched for r, or false outside a chi router or when nothing matched.
func routePattern(r *http.Request) (string, bool) {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p, true
		}
	}
	return "", false
}
