// Package handler serves the per-business audit trail over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/audit/domain"
	businessdomain "bizzytrack/backend/internal/business/domain"
	"bizzytrack/backend/internal/platform/apperr"
	"bizzytrack/backend/internal/platform/rbac"
	"bizzytrack/backend/internal/platform/timefmt"
	"bizzytrack/backend/internal/server/respond"
)

// Lister reads audit entries of one business.
type Lister interface {
	ListByBusiness(ctx context.Context, businessID string, f domain.Filter) ([]*domain.AuditLog, error)
}

// BusinessLookup resolves the caller's business for its timezone.
type BusinessLookup interface {
	GetByID(ctx context.Context, id string) (*businessdomain.Business, error)
}

// Handler serves GET /api/audit-logs.
type Handler struct {
	logs       Lister
	businesses BusinessLookup
	authz      rbac.Authorizer
	clock      *timefmt.Formatter
	logger     *zap.Logger
}

// NewHandler returns an audit read handler. clock renders timestamps in the business timezone.
func NewHandler(logs Lister, businesses BusinessLookup, authz rbac.Authorizer, clock *timefmt.Formatter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = timefmt.New("UTC")
	}
	return &Handler{logs: logs, businesses: businesses, authz: authz, clock: clock, logger: logger}
}

// Protected mounts the routes; r must already authenticate.
func (h *Handler) Protected(r chi.Router) {
	r.Get("/api/audit-logs", h.list)
}

type entryView struct {
	*domain.AuditLog
	CreatedAtLocal string `json:"created_at_local"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rc, err := rbac.RequirePermission(r.Context(), h.authz, rbac.PermAuditRead)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	entries, err := h.logs.ListByBusiness(r.Context(), rc.BusinessID, f)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	tz := ""
	if biz, err := h.businesses.GetByID(r.Context(), rc.BusinessID); err == nil && biz != nil {
		tz = biz.Timezone
	}

	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = entryView{AuditLog: e, CreatedAtLocal: h.clock.InZone(e.CreatedAt, tz)}
	}
	f = f.Normalize()
	respond.JSON(w, http.StatusOK, map[string]any{
		"audit_logs": out,
		"limit":      f.Limit,
		"offset":     f.Offset,
	})
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	f := domain.Filter{
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Action:       q.Get("action"),
		UserID:       q.Get("user_id"),
	}
	if f.UserID != "" {
		if _, err := uuid.Parse(f.UserID); err != nil {
			return f, apperr.Invalid("user_id", "must be a UUID")
		}
	}
	var err error
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, apperr.Invalid("limit", "must be an integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil {
			return f, apperr.Invalid("offset", "must be an integer")
		}
	}
	return f, nil
}
