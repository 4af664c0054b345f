package repository

import (
	"context"
	"database/sql"
	"errors"

	"bizzytrack/backend/internal/business/domain"
	"bizzytrack/backend/internal/db"
)

const (
	selectBusiness = `SELECT id, name, currency, timezone, status, created_at, updated_at FROM businesses WHERE id = $1`
	insertBusiness = `INSERT INTO businesses (id, name, currency, timezone, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// PostgresRepository persists businesses through q, which is either the Gateway or a Client
// inside a tenant transaction.
type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a business repository that runs statements on q.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// GetByID returns the business for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	var b domain.Business
	err := r.q.QueryRow(ctx, selectBusiness, id).
		Scan(&b.ID, &b.Name, &b.Currency, &b.Timezone, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts b. ID and timestamps must be set.
func (r *PostgresRepository) Create(ctx context.Context, b *domain.Business) error {
	_, err := r.q.Exec(ctx, insertBusiness,
		b.ID, b.Name, b.Currency, b.Timezone, string(b.Status), b.CreatedAt, b.UpdatedAt)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
