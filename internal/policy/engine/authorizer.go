// Package engine evaluates role permissions with an embedded OPA Rego policy.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.bizzytrack.authz.allow"

// DefaultPolicy grants owners everything; managers everything except business writes and
// user deletion; staff read access outside audit and user data plus writes on day-to-day records.
const DefaultPolicy = `package bizzytrack.authz

default allow := false

parts := split(input.permission, ":")

valid if {
	count(parts) == 2
	parts[0] != ""
	parts[1] in {"read", "write", "delete"}
}

resource := parts[0]

verb := parts[1]

staff_hidden := {"audit", "user"}

staff_writable := {"customer", "sale", "expense"}

allow if {
	valid
	input.role == "owner"
}

allow if {
	valid
	input.role == "manager"
	not manager_denied
}

manager_denied if {
	resource == "business"
	verb != "read"
}

manager_denied if input.permission == "user:delete"

allow if {
	valid
	input.role == "staff"
	verb == "read"
	not staff_hidden[resource]
}

allow if {
	valid
	input.role == "staff"
	verb == "write"
	staff_writable[resource]
}
`

// ErrInvalidPermission is returned for permission strings not of the form resource:verb.
var ErrInvalidPermission = errors.New("policy: permission must be <resource>:<read|write|delete>")

// OPAAuthorizer answers role/permission questions from a prepared Rego query. Safe for concurrent use.
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

// NewOPAAuthorizer compiles policy once. An empty policy selects DefaultPolicy.
func NewOPAAuthorizer(ctx context.Context, policy string) (*OPAAuthorizer, error) {
	if strings.TrimSpace(policy) == "" {
		policy = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAAuthorizer{query: pq}, nil
}

// Allow reports whether role holds permission.
func (a *OPAAuthorizer) Allow(ctx context.Context, role, permission string) (bool, error) {
	if !wellFormed(permission) {
		return false, ErrInvalidPermission
	}
	rs, err := a.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"role":       role,
		"permission": permission,
	}))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck evaluates a fixed probe that must be allowed. Returns nil on success.
func (a *OPAAuthorizer) HealthCheck(ctx context.Context) error {
	ok, err := a.Allow(ctx, "owner", "business:read")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("policy probe denied")
	}
	return nil
}

func wellFormed(permission string) bool {
	resource, verb, found := strings.Cut(permission, ":")
	if !found || resource == "" {
		return false
	}
	switch verb {
	case "read", "write", "delete":
		return true
	}
	return false
}
