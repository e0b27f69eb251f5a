package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"multitenant-cms/internal/server/respond"
)

const checkTimeout = 2 * time.Second

// Checker reports whether a dependency is usable.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status is the /health body.
type Status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handler serves the root greeting and the readiness check.
type Handler struct {
	checks map[string]Checker
	logger *zap.Logger
}

// NewHandler returns a Handler that runs checks on every /health request.
func NewHandler(checks map[string]Checker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{checks: checks, logger: logger}
}

// Root answers GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Hello from the multi-tenant CMS"})
}

// Health answers GET /health with 200 when every check passes and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	body := Status{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	code := http.StatusOK
	for name, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			body.Checks[name] = "error"
			body.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		body.Checks[name] = "ok"
	}
	respond.JSON(w, code, body)
}
