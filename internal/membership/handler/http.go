package handler

import (
	"net/http"

	membershiprepo "multitenant-cms/internal/membership/repository"
	"multitenant-cms/internal/server/respond"
	"multitenant-cms/internal/server/views"
)

// Handler serves the membership administration endpoints.
type Handler struct {
	memberships membershiprepo.Repository
	errs        *respond.Errors
}

func NewHandler(memberships membershiprepo.Repository, errs *respond.Errors) *Handler {
	return &Handler{memberships: memberships, errs: errs}
}

// List writes every membership.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.memberships.List(r.Context())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	out := make([]views.Membership, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, views.FromMembership(m))
	}
	respond.JSON(w, http.StatusOK, out)
}
