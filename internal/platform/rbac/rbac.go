// Package rbac checks the caller's role against a permission using the Request Context.
package rbac

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"bizzytrack/backend/internal/platform/apperr"
	"bizzytrack/backend/internal/server/middleware"
	"bizzytrack/backend/internal/server/respond"
)

// Roles, highest first.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Permissions used by the API.
const (
	PermBusinessRead  = "business:read"
	PermCustomerRead  = "customer:read"
	PermCustomerWrite = "customer:write"
	PermCustomerDel   = "customer:delete"
	PermUserRead      = "user:read"
	PermUserWrite     = "user:write"
	PermAuditRead     = "audit:read"
)

var (
	ErrUnauthenticated  = fmt.Errorf("rbac: authentication required: %w", apperr.ErrUnauthorized)
	ErrPermissionDenied = fmt.Errorf("rbac: permission denied: %w", apperr.ErrForbidden)
)

// Authorizer decides whether role holds permission.
type Authorizer interface {
	Allow(ctx context.Context, role, permission string) (bool, error)
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// RequirePermission returns the caller's RequestContext when its role holds permission.
// Returns ErrUnauthenticated without a Request Context and ErrPermissionDenied when denied.
func RequirePermission(ctx context.Context, authz Authorizer, permission string) (middleware.RequestContext, error) {
	rc, ok := middleware.FromContext(ctx)
	if !ok || rc.UserID == "" {
		return middleware.RequestContext{}, ErrUnauthenticated
	}
	allowed, err := authz.Allow(ctx, rc.Role, permission)
	if err != nil {
		return middleware.RequestContext{}, fmt.Errorf("rbac: evaluate %s: %w", permission, err)
	}
	if !allowed {
		return middleware.RequestContext{}, ErrPermissionDenied
	}
	return rc, nil
}

// Require is the route-level form of RequirePermission.
func Require(authz Authorizer, permission string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := RequirePermission(r.Context(), authz, permission); err != nil {
				respond.Error(w, logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
