package repository

import (
	"context"
	"time"

	"bizzytrack/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	// GetByEmail looks the email up across all businesses; emails are globally unique.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, businessID, id string) (*domain.User, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, businessID, id, passwordHash string, at time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
