package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

// DefaultRolePolicy grants superusers everything and otherwise requires the membership role of the
// active account to be one of the allowed roles.
const DefaultRolePolicy = `package cms.authz

default allow := false

allow if input.user.is_superuser

allow if {
	input.membership.found
	input.membership.role in input.allowed_roles
}
`

const allowQuery = "data.cms.authz.allow"

// OPAEvaluator evaluates the role policy using a prepared OPA Rego query. The policy is compiled once;
// evaluation is safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy, which must define data.cms.authz.allow. An empty policy selects
// DefaultRolePolicy.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultRolePolicy
	}
	q, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("role_policy.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile role policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// NewOPAEvaluatorFromFile reads the policy from path; an empty path selects DefaultRolePolicy.
func NewOPAEvaluatorFromFile(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role policy: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

// AllowRole evaluates the policy for in. An undefined or non-boolean result denies.
func (e *OPAEvaluator) AllowRole(ctx context.Context, in RoleInput) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(in)))
	if err != nil {
		return false, fmt.Errorf("eval role policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck verifies the compiled policy evaluates and grants a superuser. Does not touch any store.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.AllowRole(ctx, RoleInput{IsSuperuser: true, AllowedRoles: []string{"admin"}})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("role policy denies a superuser")
	}
	return nil
}

func buildInput(in RoleInput) map[string]interface{} {
	var accountID interface{}
	if in.AccountID != nil {
		accountID = *in.AccountID
	}
	allowed := make([]interface{}, len(in.AllowedRoles))
	for i, r := range in.AllowedRoles {
		allowed[i] = r
	}
	return map[string]interface{}{
		"user": map[string]interface{}{
			"id":           in.UserID,
			"is_superuser": in.IsSuperuser,
		},
		"account_id": accountID,
		"membership": map[string]interface{}{
			"found": in.HasRole,
			"role":  in.Role,
		},
		"allowed_roles": allowed,
	}
}
