package repository

import (
	"context"

	"bizzytrack/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs. There is no update or delete.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByBusiness(ctx context.Context, businessID string, f domain.Filter) ([]*domain.AuditLog, error)
}
