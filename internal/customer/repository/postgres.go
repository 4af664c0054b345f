package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bizzytrack/backend/internal/customer/domain"
	"bizzytrack/backend/internal/db"
)

const customerColumns = `id, business_id, name, email, phone, address, notes, created_at, updated_at`

const (
	selectCustomer  = `SELECT ` + customerColumns + ` FROM customers WHERE business_id = $1 AND id = $2`
	selectCustomers = `SELECT ` + customerColumns + ` FROM customers WHERE business_id = $1
	AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
	ORDER BY name LIMIT $3 OFFSET $4`
	insertCustomer = `INSERT INTO customers (id, business_id, name, email, phone, address, notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	updateCustomer = `UPDATE customers SET name = $1, email = $2, phone = $3, address = $4, notes = $5, updated_at = $6
	WHERE business_id = $7 AND id = $8`
	deleteCustomer = `DELETE FROM customers WHERE business_id = $1 AND id = $2`
)

// ErrNotFound is returned by Update and Delete when no row of the business matched.
var ErrNotFound = errors.New("customer not found")

// PostgresRepository stores customers through the Query Gateway. Every statement runs in a tenant
// transaction and also filters on business_id.
type PostgresRepository struct {
	gw *db.Gateway
}

// NewPostgresRepository returns a customer repository backed by gw.
func NewPostgresRepository(gw *db.Gateway) *PostgresRepository {
	return &PostgresRepository{gw: gw}
}

type customerRow struct {
	ID         string         `db:"id"`
	BusinessID string         `db:"business_id"`
	Name       string         `db:"name"`
	Email      sql.NullString `db:"email"`
	Phone      sql.NullString `db:"phone"`
	Address    sql.NullString `db:"address"`
	Notes      sql.NullString `db:"notes"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r *customerRow) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Name:       r.Name,
		Email:      r.Email.String,
		Phone:      r.Phone.String,
		Address:    r.Address.String,
		Notes:      r.Notes.String,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// GetByID returns the customer id of businessID, or nil if not found there.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, businessID, id string) (*domain.Customer, error) {
	var out *domain.Customer
	err := r.gw.WithTenantTx(ctx, businessID, func(c *db.Client) error {
		var row customerRow
		if err := c.Get(ctx, &row, selectCustomer, businessID, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		out = row.toDomain()
		return nil
	})
	return out, err
}

// List returns customers of businessID ordered by name, optionally matching search on name or email.
func (r *PostgresRepository) List(ctx context.Context, businessID, search string, limit, offset int) ([]*domain.Customer, error) {
	var out []*domain.Customer
	err := r.gw.WithTenantTx(ctx, businessID, func(c *db.Client) error {
		var rows []customerRow
		if err := c.Select(ctx, &rows, selectCustomers, businessID, search, limit, offset); err != nil {
			return err
		}
		out = make([]*domain.Customer, len(rows))
		for i := range rows {
			out[i] = rows[i].toDomain()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts c. ID, BusinessID and timestamps must be set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Customer) error {
	return r.gw.WithTenantTx(ctx, c.BusinessID, func(cl *db.Client) error {
		_, err := cl.Exec(ctx, insertCustomer,
			c.ID, c.BusinessID, c.Name, nullString(c.Email), nullString(c.Phone), nullString(c.Address), nullString(c.Notes),
			c.CreatedAt, c.UpdatedAt)
		return err
	})
}

// Update writes the mutable fields of c. Returns ErrNotFound when c is not in its business.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Customer) error {
	return r.gw.WithTenantTx(ctx, c.BusinessID, func(cl *db.Client) error {
		res, err := cl.Exec(ctx, updateCustomer,
			c.Name, nullString(c.Email), nullString(c.Phone), nullString(c.Address), nullString(c.Notes), c.UpdatedAt,
			c.BusinessID, c.ID)
		if err != nil {
			return err
		}
		return expectOne(res)
	})
}

// Delete removes customer id of businessID. Returns ErrNotFound when no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, businessID, id string) error {
	return r.gw.WithTenantTx(ctx, businessID, func(c *db.Client) error {
		res, err := c.Exec(ctx, deleteCustomer, businessID, id)
		if err != nil {
			return err
		}
		return expectOne(res)
	})
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repository = (*PostgresRepository)(nil)
