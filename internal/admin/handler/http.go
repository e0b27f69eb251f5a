package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountrepo "multitenant-cms/internal/account/repository"
	audithandler "multitenant-cms/internal/audit/handler"
	membershiphandler "multitenant-cms/internal/membership/handler"
	"multitenant-cms/internal/server/respond"
	"multitenant-cms/internal/server/views"
	userhandler "multitenant-cms/internal/user/handler"
)

// AccountDeleter removes an account with its memberships and detaches it from open sessions.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, id int64) error
}

// Deps are the stores and per-context handlers behind the admin routes.
type Deps struct {
	Accounts       accountrepo.Repository
	AccountDeleter AccountDeleter
	Users          *userhandler.Handler
	Memberships    *membershiphandler.Handler
	AuditLogs      *audithandler.Handler
}

// Guards are the middlewares protecting the admin routes.
type Guards struct {
	Authenticate     func(http.Handler) http.Handler
	RequireAdmin     func(http.Handler) http.Handler
	RequireSuperuser func(http.Handler) http.Handler
	Audit            func(http.Handler) http.Handler
}

// Handler serves the /admin routes.
type Handler struct {
	deps Deps
	errs *respond.Errors
}

func NewHandler(deps Deps, errs *respond.Errors) *Handler {
	return &Handler{deps: deps, errs: errs}
}

// Routes mounts the admin routes on r. Listing needs the admin role in the active account; deletion is
// reserved to superusers.
func (h *Handler) Routes(r chi.Router, g Guards) {
	r.Use(g.Authenticate, g.Audit)
	r.Group(func(r chi.Router) {
		r.Use(g.RequireAdmin)
		r.Get("/accounts", h.listAccounts)
		r.Get("/users", h.deps.Users.List)
		r.Get("/memberships", h.deps.Memberships.List)
		r.Get("/audit-logs", h.deps.AuditLogs.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(g.RequireSuperuser)
		r.Delete("/accounts/{id}", h.deleteAccount)
		r.Delete("/users/{id}", h.deps.Users.Delete)
	})
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.deps.Accounts.List(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	out := make([]*views.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, views.FromAccount(a))
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	a, err := h.deps.Accounts.GetByID(r.Context(), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if a == nil {
		h.errs.Write(w, r, respond.ErrNotFound)
		return
	}
	if err := h.deps.AccountDeleter.DeleteAccount(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
