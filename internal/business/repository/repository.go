package repository

import (
	"context"

	"bizzytrack/backend/internal/business/domain"
)

// Repository defines persistence for businesses.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Business, error)
	Create(ctx context.Context, b *domain.Business) error
}
