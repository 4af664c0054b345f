// Package repository persists the multi-table writes of the identity service.
package repository

import (
	"context"

	businessdomain "bizzytrack/backend/internal/business/domain"
	userdomain "bizzytrack/backend/internal/user/domain"
)

// TenantRegistrar creates a business and its owner atomically.
type TenantRegistrar interface {
	RegisterTenant(ctx context.Context, b *businessdomain.Business, owner *userdomain.User) error
}
