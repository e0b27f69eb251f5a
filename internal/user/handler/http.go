package handler

import (
	"context"
	"net/http"

	membershipdomain "multitenant-cms/internal/membership/domain"
	"multitenant-cms/internal/server/respond"
	"multitenant-cms/internal/server/views"
	userrepo "multitenant-cms/internal/user/repository"
)

// MembershipLister lists every membership.
type MembershipLister interface {
	List(ctx context.Context) ([]*membershipdomain.Membership, error)
}

// UserDeleter removes a user with its memberships and sessions.
type UserDeleter interface {
	DeleteUser(ctx context.Context, id int64) error
}

// Handler serves the user administration endpoints.
type Handler struct {
	users       userrepo.Repository
	memberships MembershipLister
	deleter     UserDeleter
	errs        *respond.Errors
}

// NewHandler returns a user Handler.
func NewHandler(users userrepo.Repository, memberships MembershipLister, deleter UserDeleter, errs *respond.Errors) *Handler {
	return &Handler{users: users, memberships: memberships, deleter: deleter, errs: errs}
}

// List writes every user with the memberships it holds, ordered by user id.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.users.List(ctx)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	memberships, err := h.memberships.List(ctx)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	byUser := make(map[int64][]views.Membership)
	for _, m := range memberships {
		byUser[m.UserID] = append(byUser[m.UserID], views.FromMembership(m))
	}
	out := make([]views.UserWithMemberships, 0, len(users))
	for _, u := range users {
		ms := byUser[u.ID]
		if ms == nil {
			ms = []views.Membership{}
		}
		out = append(out, views.UserWithMemberships{User: views.FromUser(u), Memberships: ms})
	}
	respond.JSON(w, http.StatusOK, out)
}

// Delete removes the user named by the {id} URL parameter. Unknown ids yield 404.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.IDParam(r, "id")
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if u == nil {
		h.errs.Write(w, r, respond.ErrNotFound)
		return
	}
	if err := h.deleter.DeleteUser(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
