// Package server assembles the HTTP API: chi router, middleware chain and route handlers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	accountrepo "multitenant-cms/internal/account/repository"
	adminhandler "multitenant-cms/internal/admin/handler"
	"multitenant-cms/internal/audit"
	audithandler "multitenant-cms/internal/audit/handler"
	auditrepo "multitenant-cms/internal/audit/repository"
	healthhandler "multitenant-cms/internal/health/handler"
	identityhandler "multitenant-cms/internal/identity/handler"
	identityservice "multitenant-cms/internal/identity/service"
	membershipdomain "multitenant-cms/internal/membership/domain"
	membershiphandler "multitenant-cms/internal/membership/handler"
	membershiprepo "multitenant-cms/internal/membership/repository"
	"multitenant-cms/internal/server/middleware"
	"multitenant-cms/internal/server/respond"
	"multitenant-cms/internal/telemetry/metrics"
	userhandler "multitenant-cms/internal/user/handler"
	userrepo "multitenant-cms/internal/user/repository"
)

// Deleter removes users and accounts together with what hangs off them.
type Deleter interface {
	DeleteUser(ctx context.Context, id int64) error
	DeleteAccount(ctx context.Context, id int64) error
}

// Stores are the repositories read by the admin routes.
type Stores struct {
	Accounts    accountrepo.Repository
	Users       userrepo.Repository
	Memberships membershiprepo.Repository
	Audit       auditrepo.Repository
	Deleter     Deleter
}

// Deps holds everything the router needs.
type Deps struct {
	Auth     *identityservice.AuthService
	Sessions middleware.AccessValidator
	Users    middleware.UserLookup
	Roles    middleware.RoleChecker
	// AuditLogger records admin requests. If nil, admin requests are not audited.
	AuditLogger audit.AuditLogger
	Stores      Stores
	// HealthChecks are run by GET /health, keyed by the name reported in the body.
	HealthChecks map[string]healthhandler.Checker
	// Metrics is served on /metrics. If nil, /metrics is not mounted.
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// ServiceName names the otelhttp server spans.
	ServiceName string
}

// NewRouter returns the HTTP handler for the whole API.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errs := respond.NewErrors(logger)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.ClientIPMiddleware,
		middleware.RequestLogger(logger, deps.Metrics),
		chimw.Recoverer,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusNotFound, respond.Detail{Detail: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.Detail{Detail: "Method Not Allowed"})
	})

	authn := middleware.Authenticate(deps.Sessions, deps.Users, errs.Write)
	auditMW := func(next http.Handler) http.Handler { return next }
	if deps.AuditLogger != nil {
		auditMW = middleware.Audit(deps.AuditLogger)
	}

	health := healthhandler.NewHandler(deps.HealthChecks, logger)
	r.Get("/", health.Root)
	r.Get("/health", health.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	auth := identityhandler.NewHandler(deps.Auth, errs)
	r.Route("/auth", func(r chi.Router) { auth.Routes(r, authn) })

	st := deps.Stores
	admin := adminhandler.NewHandler(adminhandler.Deps{
		Accounts:       st.Accounts,
		AccountDeleter: st.Deleter,
		Users:          userhandler.NewHandler(st.Users, st.Memberships, st.Deleter, errs),
		Memberships:    membershiphandler.NewHandler(st.Memberships, errs),
		AuditLogs:      audithandler.NewHandler(st.Audit, errs),
	}, errs)
	r.Route("/admin", func(r chi.Router) {
		admin.Routes(r, adminhandler.Guards{
			Authenticate:     authn,
			RequireAdmin:     middleware.RequireRole(deps.Roles, errs.Write, membershipdomain.RoleAdmin),
			RequireSuperuser: middleware.RequireRole(deps.Roles, errs.Write),
			Audit:            auditMW,
		})
	})

	name := deps.ServiceName
	if name == "" {
		name = "http"
	}
	return otelhttp.NewHandler(r, name)
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it down, waiting up to
// shutdownTimeout for in-flight requests.
func Serve(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
