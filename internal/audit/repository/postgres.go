package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bizzytrack/backend/internal/audit/domain"
	"bizzytrack/backend/internal/db"
)

const insertAuditLog = `INSERT INTO audit_logs
	(id, business_id, user_id, action, resource_type, resource_id, old_values, new_values, ip_address, user_agent, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const selectAuditLogs = `SELECT id, business_id, user_id, action, resource_type, resource_id,
	old_values, new_values, ip_address, user_agent, metadata, created_at
	FROM audit_logs WHERE business_id = $1`

// PostgresRepository stores audit logs through the Query Gateway. Every statement runs in a
// tenant transaction for the entry's business so row-level security applies.
type PostgresRepository struct {
	gw *db.Gateway
}

// NewPostgresRepository returns an audit log repository backed by gw.
func NewPostgresRepository(gw *db.Gateway) *PostgresRepository {
	return &PostgresRepository{gw: gw}
}

// Create inserts a. ID, BusinessID and CreatedAt must be set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	return r.gw.WithTenantTx(ctx, a.BusinessID, func(c *db.Client) error {
		_, err := c.Exec(ctx, insertAuditLog,
			a.ID, a.BusinessID, nullString(a.UserID), a.Action, a.ResourceType, a.ResourceID,
			nullJSON(a.OldValues), nullJSON(a.NewValues), nullString(a.IPAddress), nullString(a.UserAgent),
			nullJSON(a.Metadata), a.CreatedAt,
		)
		return err
	})
}

// ListByBusiness returns entries for businessID, newest first.
func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID string, f domain.Filter) ([]*domain.AuditLog, error) {
	f = f.Normalize()
	var sb strings.Builder
	sb.WriteString(selectAuditLogs)
	args := []any{businessID}
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		fmt.Fprintf(&sb, " AND %s = $%d", col, len(args))
	}
	add("resource_type", f.ResourceType)
	add("resource_id", f.ResourceID)
	add("action", f.Action)
	add("user_id", f.UserID)
	args = append(args, f.Limit, f.Offset)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var out []*domain.AuditLog
	err := r.gw.WithTenantTx(ctx, businessID, func(c *db.Client) error {
		var rows []auditRow
		if err := c.Select(ctx, &rows, sb.String(), args...); err != nil {
			return err
		}
		out = make([]*domain.AuditLog, len(rows))
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

type auditRow struct {
	ID           string         `db:"id"`
	BusinessID   string         `db:"business_id"`
	UserID       sql.NullString `db:"user_id"`
	Action       string         `db:"action"`
	ResourceType string         `db:"resource_type"`
	ResourceID   sql.NullString `db:"resource_id"`
	OldValues    []byte         `db:"old_values"`
	NewValues    []byte         `db:"new_values"`
	IPAddress    sql.NullString `db:"ip_address"`
	UserAgent    sql.NullString `db:"user_agent"`
	Metadata     []byte         `db:"metadata"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r *auditRow) toDomain() *domain.AuditLog {
	a := &domain.AuditLog{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		UserID:       r.UserID.String,
		Action:       r.Action,
		ResourceType: r.ResourceType,
		OldValues:    r.OldValues,
		NewValues:    r.NewValues,
		IPAddress:    r.IPAddress.String,
		UserAgent:    r.UserAgent.String,
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
	}
	if r.ResourceID.Valid {
		id := r.ResourceID.String
		a.ResourceID = &id
	}
	return a
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullJSON binds an empty payload as SQL NULL and anything else as JSON text.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
