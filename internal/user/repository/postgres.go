package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bizzytrack/backend/internal/db"
	"bizzytrack/backend/internal/user/domain"
)

const userColumns = `id, business_id, email, full_name, role, password_hash, is_active, last_login_at, created_at, updated_at`

const (
	selectUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	selectUserByID    = `SELECT ` + userColumns + ` FROM users WHERE business_id = $1 AND id = $2`
	selectUsers       = `SELECT ` + userColumns + ` FROM users WHERE business_id = $1 ORDER BY created_at`
	insertUser        = `INSERT INTO users (id, business_id, email, full_name, role, password_hash, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	updatePassword  = `UPDATE users SET password_hash = $1, updated_at = $2 WHERE business_id = $3 AND id = $4`
	updateLastLogin = `UPDATE users SET last_login_at = $1 WHERE id = $2`
)

// ErrNotFound is returned by updates that matched no row.
var ErrNotFound = errors.New("user not found")

// PostgresRepository persists users through q, which is either the Gateway or a Client inside a
// tenant transaction. Password hashes are bound as db.Sensitive so statement logs never show them.
type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a user repository that runs statements on q.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

type userRow struct {
	ID           string       `db:"id"`
	BusinessID   string       `db:"business_id"`
	Email        string       `db:"email"`
	FullName     string       `db:"full_name"`
	Role         string       `db:"role"`
	PasswordHash string       `db:"password_hash"`
	IsActive     bool         `db:"is_active"`
	LastLoginAt  sql.NullTime `db:"last_login_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r *userRow) toDomain() *domain.User {
	u := &domain.User{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		Email:        r.Email,
		FullName:     r.FullName,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLoginAt.Valid {
		t := r.LastLoginAt.Time
		u.LastLoginAt = &t
	}
	return u
}

// GetByEmail returns the user with the given email (case-insensitive), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUserByEmail, email)
}

// GetByID returns the user id in businessID, or nil if not found there.
func (r *PostgresRepository) GetByID(ctx context.Context, businessID, id string) (*domain.User, error) {
	return r.getOne(ctx, selectUserByID, businessID, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var row userRow
	if err := r.q.Get(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// ListByBusiness returns the users of businessID in creation order.
func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.User, error) {
	var rows []userRow
	if err := r.q.Select(ctx, &rows, selectUsers, businessID); err != nil {
		return nil, err
	}
	out := make([]*domain.User, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Create inserts u. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.Exec(ctx, insertUser,
		u.ID, u.BusinessID, u.Email, u.FullName, u.Role, db.Sensitive(u.PasswordHash), u.IsActive, u.CreatedAt, u.UpdatedAt)
	return err
}

// UpdatePassword replaces the stored hash of user id in businessID. Returns ErrNotFound when no row matched.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, businessID, id, passwordHash string, at time.Time) error {
	res, err := r.q.Exec(ctx, updatePassword, db.Sensitive(passwordHash), at, businessID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.Exec(ctx, updateLastLogin, at, id)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
