package repository

import (
	"context"

	"bizzytrack/backend/internal/customer/domain"
)

// Repository defines persistence for customers. Every method is scoped to businessID.
type Repository interface {
	GetByID(ctx context.Context, businessID, id string) (*domain.Customer, error)
	List(ctx context.Context, businessID, search string, limit, offset int) ([]*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, businessID, id string) error
}
