package handler

import (
	"net/http"
	"strconv"

	"multitenant-cms/internal/audit/domain"
	auditrepo "multitenant-cms/internal/audit/repository"
	"multitenant-cms/internal/server/respond"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler serves the audit log listing.
type Handler struct {
	repo auditrepo.Repository
	errs *respond.Errors
}

func NewHandler(repo auditrepo.Repository, errs *respond.Errors) *Handler {
	return &Handler{repo: repo, errs: errs}
}

// List writes a page of audit entries, newest first. Query parameters: limit (1..500, default 50) and
// offset (default 0).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		h.errs.Write(w, r, respond.Malformed("limit must be between 1 and "+strconv.Itoa(maxLimit)))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		h.errs.Write(w, r, respond.Malformed("offset must be a non-negative integer"))
		return
	}
	logs, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	respond.JSON(w, http.StatusOK, logs)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
