// Package rbac resolves tenant-scoped roles and enforces account access and role gates.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"multitenant-cms/internal/membership/domain"
	"multitenant-cms/internal/policy/engine"
	"multitenant-cms/internal/telemetry/metrics"
	userdomain "multitenant-cms/internal/user/domain"
)

var (
	// ErrForbiddenTenant is returned when a non-superuser has no membership in the requested account.
	ErrForbiddenTenant = errors.New("user does not belong to the selected account")
	// ErrInsufficientPermissions is returned when the caller's role is not in the allowed set.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// MembershipGetter is the membership store the resolver reads from.
type MembershipGetter interface {
	GetByUserAndAccount(ctx context.Context, userID, accountID int64) (*domain.Membership, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Membership, error)
}

// Resolver answers role and access questions for (user, account) pairs.
type Resolver struct {
	memberships MembershipGetter
	evaluator   engine.RoleEvaluator
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewResolver returns a Resolver. evaluator decides role gates; logger and mt may be nil.
func NewResolver(memberships MembershipGetter, evaluator engine.RoleEvaluator, logger *zap.Logger, mt *metrics.Metrics) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{memberships: memberships, evaluator: evaluator, logger: logger, metrics: mt}
}

// ResolveRole returns the role userID holds in accountID. ok is false when accountID is nil or there is
// no membership for the exact pair; that is not an error.
func (r *Resolver) ResolveRole(ctx context.Context, userID int64, accountID *int64) (role string, ok bool, err error) {
	if accountID == nil {
		return "", false, nil
	}
	m, err := r.memberships.GetByUserAndAccount(ctx, userID, *accountID)
	if err != nil {
		return "", false, fmt.Errorf("resolve role: %w", err)
	}
	if m == nil {
		return "", false, nil
	}
	return m.Role, true, nil
}

// EnsureAccess returns nil when user may act in accountID: superusers always may, everyone else needs a
// membership. Account existence is not checked here.
func (r *Resolver) EnsureAccess(ctx context.Context, user *userdomain.User, accountID int64) error {
	if user.IsSuperuser {
		return nil
	}
	_, ok, err := r.ResolveRole(ctx, user.ID, &accountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbiddenTenant
	}
	return nil
}

// MembershipsOf returns all memberships of userID.
func (r *Resolver) MembershipsOf(ctx context.Context, userID int64) ([]*domain.Membership, error) {
	list, err := r.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return list, nil
}

// RequireRole checks that user, acting in activeAccountID, holds one of allowed. The decision is made
// by the role policy; superusers pass regardless of membership.
func (r *Resolver) RequireRole(ctx context.Context, user *userdomain.User, activeAccountID *int64, allowed []string) error {
	in := engine.RoleInput{
		UserID:       user.ID,
		IsSuperuser:  user.IsSuperuser,
		AccountID:    activeAccountID,
		AllowedRoles: allowed,
	}
	if !user.IsSuperuser {
		role, ok, err := r.ResolveRole(ctx, user.ID, activeAccountID)
		if err != nil {
			return err
		}
		in.Role, in.HasRole = role, ok
	}
	allow, err := r.evaluator.AllowRole(ctx, in)
	if err != nil {
		return err
	}
	r.metrics.AuthzDecision(allow)
	if !allow {
		r.logger.Debug("role check denied",
			zap.Int64("user_id", user.ID), zap.String("role", in.Role), zap.Strings("allowed", allowed))
		return ErrInsufficientPermissions
	}
	return nil
}
