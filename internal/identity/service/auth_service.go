package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	accountdomain "multitenant-cms/internal/account/domain"
	"multitenant-cms/internal/audit"
	auditdomain "multitenant-cms/internal/audit/domain"
	membershipdomain "multitenant-cms/internal/membership/domain"
	"multitenant-cms/internal/platform/rbac"
	sessiondomain "multitenant-cms/internal/session/domain"
	sessionservice "multitenant-cms/internal/session/service"
	userdomain "multitenant-cms/internal/user/domain"
)

// SessionBundle is what every auth operation returns to the client: the session, its owner, the active
// account (nil when none is selected or it no longer exists) and the owner's role there (nil when the owner
// has no membership in it).
type SessionBundle struct {
	Session   *sessiondomain.Session
	User      *userdomain.User
	Account   *accountdomain.Account
	Role      *string
	ExpiresIn int64 // seconds until the access token expires
}

// Sessions is the session lifecycle the auth service drives.
type Sessions interface {
	Issue(ctx context.Context, user *userdomain.User, activeAccountID *int64) (*sessiondomain.Session, error)
	Revoke(ctx context.Context, s *sessiondomain.Session) error
	Refresh(ctx context.Context, refreshToken string) (*sessiondomain.Session, error)
	SwitchActiveAccount(ctx context.Context, s *sessiondomain.Session, accountID *int64) (*sessiondomain.Session, error)
}

// Resolver is the membership resolver the auth service consults.
type Resolver interface {
	ResolveRole(ctx context.Context, userID int64, accountID *int64) (string, bool, error)
	EnsureAccess(ctx context.Context, user *userdomain.User, accountID int64) error
	MembershipsOf(ctx context.Context, userID int64) ([]*membershipdomain.Membership, error)
}

// AuthService implements login, logout, refresh, me and switch-account on top of the credential store,
// the membership resolver and the session manager.
type AuthService struct {
	creds    *CredentialStore
	resolver Resolver
	sessions Sessions
	audit    audit.AuditLogger
	clock    clock.Clock
	logger   *zap.Logger
}

// NewAuthService returns an AuthService. auditLogger and logger may be nil; c nil selects the wall clock.
func NewAuthService(creds *CredentialStore, resolver Resolver, sessions Sessions, auditLogger audit.AuditLogger, c clock.Clock, logger *zap.Logger) *AuthService {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{creds: creds, resolver: resolver, sessions: sessions, audit: auditLogger, clock: c, logger: logger}
}

// Login authenticates email/password and issues a session, optionally scoped to accountID.
// A requested account that does not exist or that the user may not access yields rbac.ErrForbiddenTenant.
func (s *AuthService) Login(ctx context.Context, email, password string, accountID *int64) (*SessionBundle, error) {
	user, err := s.creds.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountInactive) {
			s.logEvent(ctx, audit.Event{
				Action:   auditdomain.ActionLoginFailure,
				Resource: auditdomain.ResourceSession,
				Metadata: metadata(map[string]string{"email": email, "reason": err.Error()}),
			})
		}
		return nil, err
	}
	if accountID != nil {
		if err := s.checkAccount(ctx, user, *accountID); err != nil {
			s.logEvent(ctx, audit.Event{
				UserID:    &user.ID,
				AccountID: accountID,
				Action:    auditdomain.ActionLoginFailure,
				Resource:  auditdomain.ResourceAccount,
				Metadata:  metadata(map[string]string{"reason": err.Error()}),
			})
			return nil, err
		}
	}
	sess, err := s.sessions.Issue(ctx, user, accountID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, audit.Event{
		UserID:    &user.ID,
		AccountID: sess.ActiveAccountID,
		SessionID: sess.ID,
		Action:    auditdomain.ActionLoginSuccess,
		Resource:  auditdomain.ResourceSession,
	})
	return s.bundle(ctx, sess, user)
}

// Logout revokes sess. Revoking an already revoked session succeeds.
func (s *AuthService) Logout(ctx context.Context, sess *sessiondomain.Session, user *userdomain.User) error {
	if err := s.sessions.Revoke(ctx, sess); err != nil {
		return err
	}
	s.logEvent(ctx, audit.Event{
		UserID:    &user.ID,
		AccountID: sess.ActiveAccountID,
		SessionID: sess.ID,
		Action:    auditdomain.ActionLogout,
		Resource:  auditdomain.ResourceSession,
	})
	return nil
}

// Refresh exchanges refreshToken for a new session bundle.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*SessionBundle, error) {
	sess, err := s.sessions.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.creds.LookupUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, sessionservice.ErrUserGone
	}
	s.logEvent(ctx, audit.Event{
		UserID:    &user.ID,
		AccountID: sess.ActiveAccountID,
		SessionID: sess.ID,
		Action:    auditdomain.ActionRefresh,
		Resource:  auditdomain.ResourceSession,
	})
	return s.bundle(ctx, sess, user)
}

// Me describes the caller's current session.
func (s *AuthService) Me(ctx context.Context, sess *sessiondomain.Session, user *userdomain.User) (*SessionBundle, error) {
	return s.bundle(ctx, sess, user)
}

// SwitchAccount changes the active account of sess. A nil accountID clears it; otherwise the account must
// exist and the user must be allowed to act in it.
func (s *AuthService) SwitchAccount(ctx context.Context, sess *sessiondomain.Session, user *userdomain.User, accountID *int64) (*SessionBundle, error) {
	if accountID != nil {
		if err := s.checkAccount(ctx, user, *accountID); err != nil {
			return nil, err
		}
	}
	updated, err := s.sessions.SwitchActiveAccount(ctx, sess, accountID)
	if err != nil {
		return nil, err
	}
	previous := "none"
	if sess.ActiveAccountID != nil {
		previous = strconv.FormatInt(*sess.ActiveAccountID, 10)
	}
	s.logEvent(ctx, audit.Event{
		UserID:    &user.ID,
		AccountID: updated.ActiveAccountID,
		SessionID: updated.ID,
		Action:    auditdomain.ActionSwitchAccount,
		Resource:  auditdomain.ResourceAccount,
		Metadata:  metadata(map[string]string{"previous_account_id": previous}),
	})
	return s.bundle(ctx, updated, user)
}

// MembershipsOf lists the memberships of userID.
func (s *AuthService) MembershipsOf(ctx context.Context, userID int64) ([]*membershipdomain.Membership, error) {
	return s.resolver.MembershipsOf(ctx, userID)
}

func (s *AuthService) checkAccount(ctx context.Context, user *userdomain.User, accountID int64) error {
	acct, err := s.creds.LookupAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		return rbac.ErrForbiddenTenant
	}
	return s.resolver.EnsureAccess(ctx, user, accountID)
}

func (s *AuthService) bundle(ctx context.Context, sess *sessiondomain.Session, user *userdomain.User) (*SessionBundle, error) {
	b := &SessionBundle{Session: sess, User: user}
	if sess.ActiveAccountID != nil {
		acct, err := s.creds.LookupAccount(ctx, *sess.ActiveAccountID)
		if err != nil {
			return nil, err
		}
		b.Account = acct
	}
	role, ok, err := s.resolver.ResolveRole(ctx, user.ID, sess.ActiveAccountID)
	if err != nil {
		return nil, err
	}
	if ok {
		b.Role = &role
	}
	remaining := sess.AccessExpiresAt.Sub(s.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	b.ExpiresIn = int64(remaining / time.Second)
	return b, nil
}

func (s *AuthService) logEvent(ctx context.Context, e audit.Event) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, e)
}

func metadata(m map[string]string) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
