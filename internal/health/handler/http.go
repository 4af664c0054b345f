// Package handler serves readiness and liveness for load balancers and orchestrators.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/db"
	"bizzytrack/backend/internal/server/respond"
)

// DefaultTimeout bounds one health probe.
const DefaultTimeout = 3 * time.Second

// DatabaseChecker reports database reachability.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) db.HealthStatus
}

// PolicyChecker reports whether the permission policy evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves GET /api/health.
type Handler struct {
	db      DatabaseChecker
	policy  PolicyChecker
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler returns a health handler. policy may be nil.
func NewHandler(database DatabaseChecker, policy PolicyChecker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{db: database, policy: policy, timeout: DefaultTimeout, logger: logger}
}

// Public mounts the health route.
func (h *Handler) Public(r chi.Router) {
	r.Get("/api/health", h.ServeHTTP)
}

// ServeHTTP answers 200 with status healthy, or 503 with status unhealthy and the failing check.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())
	code := http.StatusOK
	if status.Status != db.StatusHealthy {
		code = http.StatusServiceUnavailable
		h.logger.Warn("health: unhealthy", zap.String("error", status.Error))
	}
	respond.JSON(w, code, status)
}

// Check runs every probe; the first failure wins. It never panics.
func (h *Handler) Check(ctx context.Context) (status db.HealthStatus) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			status = db.HealthStatus{Status: db.StatusUnhealthy, Timestamp: time.Now().UTC(), Error: "health check panicked"}
		}
	}()

	if h.db == nil {
		return db.HealthStatus{Status: db.StatusUnhealthy, Timestamp: time.Now().UTC(), Error: "database not configured"}
	}
	status = h.db.HealthCheck(ctx)
	if status.Status != db.StatusHealthy {
		return status
	}
	if h.policy != nil {
		if err := h.policy.HealthCheck(ctx); err != nil {
			return db.HealthStatus{Status: db.StatusUnhealthy, Timestamp: status.Timestamp, Error: "policy: " + err.Error()}
		}
	}
	return status
}
