package repository

import (
	"context"

	businessdomain "bizzytrack/backend/internal/business/domain"
	businessrepo "bizzytrack/backend/internal/business/repository"
	"bizzytrack/backend/internal/db"
	userdomain "bizzytrack/backend/internal/user/domain"
	userrepo "bizzytrack/backend/internal/user/repository"
)

// PostgresRegistrar writes the business and owner rows in one tenant transaction.
type PostgresRegistrar struct {
	gw *db.Gateway
}

// NewPostgresRegistrar returns a registrar that uses gw for persistence.
func NewPostgresRegistrar(gw *db.Gateway) *PostgresRegistrar {
	return &PostgresRegistrar{gw: gw}
}

// RegisterTenant inserts b and owner; either both rows commit or neither does.
func (r *PostgresRegistrar) RegisterTenant(ctx context.Context, b *businessdomain.Business, owner *userdomain.User) error {
	return r.gw.WithTenantTx(ctx, b.ID, func(c *db.Client) error {
		if err := businessrepo.NewPostgresRepository(c).Create(ctx, b); err != nil {
			return err
		}
		return userrepo.NewPostgresRepository(c).Create(ctx, owner)
	})
}

var _ TenantRegistrar = (*PostgresRegistrar)(nil)
