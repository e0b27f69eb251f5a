// Package service implements the session lifecycle: issuing, validating, refreshing, switching and revoking
// opaque bearer sessions. A session moves from active to replaced (by Refresh) or revoked, never back.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"multitenant-cms/internal/security"
	"multitenant-cms/internal/session/domain"
	"multitenant-cms/internal/session/repository"
	"multitenant-cms/internal/telemetry"
	telemetrydomain "multitenant-cms/internal/telemetry/domain"
	"multitenant-cms/internal/telemetry/metrics"
	userdomain "multitenant-cms/internal/user/domain"
)

// Sentinel errors; the HTTP layer maps all of them to 401.
var (
	ErrInvalidAccessToken  = errors.New("access token is invalid")
	ErrAccessExpired       = errors.New("access token has expired")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid")
	ErrRefreshExpired      = errors.New("refresh token has expired")
	ErrUserGone            = errors.New("user no longer exists")
)

const eventSource = "session-manager"

// UserLookup resolves the owner of a session.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*userdomain.User, error)
}

// Config holds token lifetimes and sizes.
type Config struct {
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	AccessTokenBytes  int
	RefreshTokenBytes int
}

// DefaultConfig returns 30 minute access tokens of 32 bytes and 7 day refresh tokens of 40 bytes.
func DefaultConfig() Config {
	return Config{
		AccessTTL:         30 * time.Minute,
		RefreshTTL:        7 * 24 * time.Hour,
		AccessTokenBytes:  32,
		RefreshTokenBytes: 40,
	}
}

// Manager owns session state. It is safe for concurrent use; atomicity of the dual token index is
// delegated to the repository.
type Manager struct {
	repo    repository.Repository
	users   UserLookup
	clock   clock.Clock
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	events  telemetry.EventEmitter
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithClock replaces the wall clock, e.g. with clock.NewMock() in tests.
func WithClock(c clock.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithLogger sets the logger. Default is zap.NewNop().
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithMetrics records session counters on mt.
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// WithEvents publishes lifecycle events to e. Emit runs inline; wrap brokers in telemetry.NewAsync.
func WithEvents(e telemetry.EventEmitter) Option { return func(m *Manager) { m.events = e } }

// NewManager returns a Manager over repo. users is consulted on refresh to detect deleted owners.
func NewManager(repo repository.Repository, users UserLookup, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		users:  users,
		clock:  clock.New(),
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// AccessTTL is the lifetime of issued access tokens, reported to clients as expires_in.
func (m *Manager) AccessTTL() time.Duration {
	return m.cfg.AccessTTL
}

func (m *Manager) newSession(userID int64, accountID *int64, now time.Time) (*domain.Session, error) {
	access, err := security.NewOpaqueToken(m.cfg.AccessTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := security.NewOpaqueToken(m.cfg.RefreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	s := &domain.Session{
		ID:               uuid.New().String(),
		UserID:           userID,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.cfg.AccessTTL),
		RefreshExpiresAt: now.Add(m.cfg.RefreshTTL),
		CreatedAt:        now,
	}
	if accountID != nil {
		id := *accountID
		s.ActiveAccountID = &id
	}
	return s, nil
}

// Issue creates a session for user with the given active account (nil for none). The caller must already
// have checked that the user may act in that account.
func (m *Manager) Issue(ctx context.Context, user *userdomain.User, activeAccountID *int64) (*domain.Session, error) {
	now := m.clock.Now().UTC()
	s, err := m.newSession(user.ID, activeAccountID, now)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	m.metrics.SessionIssued()
	m.emit(telemetrydomain.EventSessionIssued, s, now, nil)
	m.logger.Debug("session issued", zap.String("session_id", s.ID), zap.Int64("user_id", user.ID))
	return s, nil
}

// Revoke removes both tokens of s. Revoking an already revoked session is a no-op.
func (m *Manager) Revoke(ctx context.Context, s *domain.Session) error {
	return m.revoke(ctx, s, "logout", telemetrydomain.EventSessionRevoked)
}

func (m *Manager) revoke(ctx context.Context, s *domain.Session, reason, eventType string) error {
	if err := m.repo.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	m.metrics.SessionRevoked(reason)
	m.emit(eventType, s, m.clock.Now().UTC(), map[string]string{"reason": reason})
	return nil
}

// ValidateAccess returns the live session for accessToken. An expired session is revoked before
// ErrAccessExpired is returned, so the token fails as invalid on the next attempt.
func (m *Manager) ValidateAccess(ctx context.Context, accessToken string) (*domain.Session, error) {
	now := m.clock.Now()
	s, err := m.repo.GetByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("validate access: %w", err)
	}
	if s == nil {
		return nil, ErrInvalidAccessToken
	}
	if s.AccessExpired(now) {
		if err := m.revoke(ctx, s, "access_expired", telemetrydomain.EventSessionExpired); err != nil {
			return nil, err
		}
		return nil, ErrAccessExpired
	}
	return s, nil
}

// Refresh exchanges refreshToken for a new session with fresh tokens and the same active account.
// The old pair stops working in the same store operation that activates the new one; of two concurrent
// refreshes with the same token exactly one succeeds.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	now := m.clock.Now().UTC()
	old, err := m.repo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if old == nil {
		m.metrics.Refresh("invalid")
		return nil, ErrInvalidRefreshToken
	}
	if old.RefreshExpired(now) {
		m.metrics.Refresh("expired")
		if err := m.revoke(ctx, old, "refresh_expired", telemetrydomain.EventSessionExpired); err != nil {
			return nil, err
		}
		return nil, ErrRefreshExpired
	}
	owner, err := m.users.GetByID(ctx, old.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: load user: %w", err)
	}
	if owner == nil {
		m.metrics.Refresh("user_gone")
		if err := m.revoke(ctx, old, "user_gone", telemetrydomain.EventSessionRevoked); err != nil {
			return nil, err
		}
		return nil, ErrUserGone
	}
	next, err := m.newSession(old.UserID, old.ActiveAccountID, now)
	if err != nil {
		return nil, err
	}
	if err := m.repo.Rotate(ctx, old.ID, old.RefreshToken, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.metrics.Refresh("invalid")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("refresh: rotate: %w", err)
	}
	m.metrics.Refresh("ok")
	m.emit(telemetrydomain.EventSessionRefreshed, next, now, map[string]string{"previous_session_id": old.ID})
	return next, nil
}

// SwitchActiveAccount sets the active account of s in place; the tokens do not change. The caller must
// already have checked that the user may act in accountID. A nil accountID clears the selection.
func (m *Manager) SwitchActiveAccount(ctx context.Context, s *domain.Session, accountID *int64) (*domain.Session, error) {
	if err := m.repo.SetActiveAccount(ctx, s.ID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("switch account: %w", err)
	}
	updated := s.Clone()
	updated.ActiveAccountID = nil
	if accountID != nil {
		id := *accountID
		updated.ActiveAccountID = &id
	}
	m.emit(telemetrydomain.EventAccountSwitched, updated, m.clock.Now().UTC(), nil)
	return updated, nil
}

func (m *Manager) emit(eventType string, s *domain.Session, at time.Time, meta map[string]string) {
	if m.events == nil {
		return
	}
	event := &telemetrydomain.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		SessionID:  s.ID,
		UserID:     s.UserID,
		AccountID:  s.ActiveAccountID,
		Source:     eventSource,
		Metadata:   meta,
		OccurredAt: at,
	}
	if err := m.events.Emit(context.Background(), event); err != nil {
		m.logger.Warn("session event not emitted", zap.String("event_type", eventType), zap.Error(err))
	}
}
