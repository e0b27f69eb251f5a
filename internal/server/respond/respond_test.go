package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	identityservice "multitenant-cms/internal/identity/service"
	"multitenant-cms/internal/platform/rbac"
	"multitenant-cms/internal/server/middleware"
	sessionservice "multitenant-cms/internal/session/service"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantDetail string
	}{
		{middleware.ErrMissingCredential, 401, "Authorization header is required"},
		{middleware.ErrMalformedCredential, 401, "Authorization header must be a Bearer token"},
		{identityservice.ErrInvalidCredentials, 401, "Invalid credentials"},
		{identityservice.ErrAccountInactive, 403, "User account is inactive"},
		{sessionservice.ErrInvalidAccessToken, 401, "Access token is invalid"},
		{sessionservice.ErrAccessExpired, 401, "Access token has expired"},
		{sessionservice.ErrInvalidRefreshToken, 401, "Refresh token is invalid"},
		{sessionservice.ErrRefreshExpired, 401, "Refresh token has expired"},
		{sessionservice.ErrUserGone, 401, "User no longer exists"},
		{rbac.ErrForbiddenTenant, 403, "User does not belong to the selected account"},
		{rbac.ErrInsufficientPermissions, 403, "Insufficient permissions"},
		{fmt.Errorf("wrapped: %w", rbac.ErrForbiddenTenant), 403, "User does not belong to the selected account"},
		{Malformed("email and password are required"), 422, "malformed request body: email and password are required"},
		{errors.New("disk on fire"), 500, "Internal server error"},
	}
	for _, tt := range tests {
		status, detail := Status(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantDetail, detail, tt.err.Error())
	}
}

func TestErrors_Write(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	errs := NewErrors(zap.New(core))
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	rec := httptest.NewRecorder()
	errs.Write(rec, req, sessionservice.ErrAccessExpired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"Access token has expired"}`, rec.Body.String())
	assert.Zero(t, logs.Len())

	rec = httptest.NewRecorder()
	errs.Write(rec, req, errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	require.Equal(t, 1, logs.Len())
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"acme"}`))
	require.NoError(t, Decode(req, &v, false))
	assert.Equal(t, "acme", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, Decode(req, &v, false), ErrMalformedBody)
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, Decode(req, &v, true))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":1}`))
	assert.ErrorIs(t, Decode(req, &v, true), ErrMalformedBody)
}
