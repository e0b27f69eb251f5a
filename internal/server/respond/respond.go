// Package respond writes JSON responses and maps domain errors to HTTP statuses with a {"detail": ...} body.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	identityservice "multitenant-cms/internal/identity/service"
	"multitenant-cms/internal/platform/rbac"
	"multitenant-cms/internal/server/middleware"
	sessionservice "multitenant-cms/internal/session/service"
)

// ErrMalformedBody is returned by Decode when the request body is not the expected JSON.
var ErrMalformedBody = errors.New("malformed request body")

// ErrNotFound renders as 404.
var ErrNotFound = errors.New("not found")

const maxBodyBytes = 1 << 20

// Detail is the error body.
type Detail struct {
	Detail string `json:"detail"`
}

type mapping struct {
	err    error
	status int
	detail string
}

// mappings is checked in order with errors.Is.
var mappings = []mapping{
	{middleware.ErrMissingCredential, http.StatusUnauthorized, "Authorization header is required"},
	{middleware.ErrMalformedCredential, http.StatusUnauthorized, "Authorization header must be a Bearer token"},
	{identityservice.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{identityservice.ErrAccountInactive, http.StatusForbidden, "User account is inactive"},
	{sessionservice.ErrInvalidAccessToken, http.StatusUnauthorized, "Access token is invalid"},
	{sessionservice.ErrAccessExpired, http.StatusUnauthorized, "Access token has expired"},
	{sessionservice.ErrInvalidRefreshToken, http.StatusUnauthorized, "Refresh token is invalid"},
	{sessionservice.ErrRefreshExpired, http.StatusUnauthorized, "Refresh token has expired"},
	{sessionservice.ErrUserGone, http.StatusUnauthorized, "User no longer exists"},
	{rbac.ErrForbiddenTenant, http.StatusForbidden, "User does not belong to the selected account"},
	{rbac.ErrInsufficientPermissions, http.StatusForbidden, "Insufficient permissions"},
	{ErrNotFound, http.StatusNotFound, "Not Found"},
}

// Status returns the HTTP status and client-facing detail for err. Unknown errors map to 500.
func Status(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, m.detail
		}
	}
	if errors.Is(err, ErrMalformedBody) {
		return http.StatusUnprocessableEntity, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// Malformed returns an ErrMalformedBody carrying reason.
func Malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedBody, reason)
}

// JSON writes v as the response body with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Errors renders errors as {"detail": ...}. 500s are logged with the underlying error.
type Errors struct {
	logger *zap.Logger
}

// NewErrors returns an error renderer logging to logger (nil for no logging).
func NewErrors(logger *zap.Logger) *Errors {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Errors{logger: logger}
}

// Write renders err for r. Its signature matches middleware.ErrorWriter.
func (e *Errors) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := Status(err)
	if status == http.StatusInternalServerError {
		e.logger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	JSON(w, status, Detail{Detail: detail})
}

// Decode reads a JSON object from r's body into v. An empty body leaves v untouched when allowEmpty is set.
// Syntax and type errors are wrapped in ErrMalformedBody.
func Decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// IDParam parses the chi URL parameter name as an int64 id.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, Malformed(name + " must be an integer")
	}
	return id, nil
}
