package engine

import "context"

// RoleInput is the decision input for a role-gated request.
type RoleInput struct {
	UserID       int64
	IsSuperuser  bool
	AccountID    *int64 // active account of the session; nil when none is selected
	Role         string // membership role in AccountID; empty when HasRole is false
	HasRole      bool
	AllowedRoles []string
}

// RoleEvaluator decides whether a caller may use a role-gated endpoint.
type RoleEvaluator interface {
	AllowRole(ctx context.Context, in RoleInput) (bool, error)
}
