package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"multitenant-cms/internal/identity/service"
	"multitenant-cms/internal/server/middleware"
	"multitenant-cms/internal/server/respond"
	"multitenant-cms/internal/server/views"
)

// Tokens is the credential pair handed to the client.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthSession is the body of every successful auth response except logout.
type AuthSession struct {
	Tokens        Tokens         `json:"tokens"`
	User          views.User     `json:"user"`
	ActiveAccount *views.Account `json:"active_account"`
	Role          *string        `json:"role"`
}

type loginRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	AccountID *int64  `json:"account_id"`
}

type refreshRequest struct {
	RefreshToken *string `json:"refresh_token"`
}

type switchAccountRequest struct {
	AccountID *int64 `json:"account_id"`
}

type message struct {
	Message string `json:"message"`
}

// Handler serves the /auth routes.
type Handler struct {
	auth *service.AuthService
	errs *respond.Errors
}

// NewHandler returns an auth Handler.
func NewHandler(auth *service.AuthService, errs *respond.Errors) *Handler {
	return &Handler{auth: auth, errs: errs}
}

// Routes mounts the auth routes on r. authn guards the routes that need a session.
func (h *Handler) Routes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Post("/switch-account", h.switchAccount)
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req, false); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if req.Email == nil || req.Password == nil {
		h.errs.Write(w, r, respond.Malformed("email and password are required"))
		return
	}
	b, err := h.auth.Login(r.Context(), *req.Email, *req.Password, req.AccountID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toAuthSession(b))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := respond.Decode(r, &req, false); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if req.RefreshToken == nil {
		h.errs.Write(w, r, respond.Malformed("refresh_token is required"))
		return
	}
	b, err := h.auth.Refresh(r.Context(), *req.RefreshToken)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toAuthSession(b))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())
	user, _ := middleware.UserFrom(r.Context())
	if err := h.auth.Logout(r.Context(), sess, user); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, message{Message: "Logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())
	user, _ := middleware.UserFrom(r.Context())
	b, err := h.auth.Me(r.Context(), sess, user)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toAuthSession(b))
}

func (h *Handler) switchAccount(w http.ResponseWriter, r *http.Request) {
	var req switchAccountRequest
	if err := respond.Decode(r, &req, true); err != nil {
		h.errs.Write(w, r, err)
		return
	}
	sess, _ := middleware.SessionFrom(r.Context())
	user, _ := middleware.UserFrom(r.Context())
	b, err := h.auth.SwitchAccount(r.Context(), sess, user, req.AccountID)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, toAuthSession(b))
}

func toAuthSession(b *service.SessionBundle) AuthSession {
	return AuthSession{
		Tokens: Tokens{
			AccessToken:  b.Session.AccessToken,
			RefreshToken: b.Session.RefreshToken,
			TokenType:    "bearer",
			ExpiresIn:    b.ExpiresIn,
		},
		User:          views.FromUser(b.User),
		ActiveAccount: views.FromAccount(b.Account),
		Role:          b.Role,
	}
}
