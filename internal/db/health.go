package db

import (
	"context"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the result of a liveness round trip.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// HealthCheck runs SELECT 1. It never returns an error; failures are reported in the status.
func (g *Gateway) HealthCheck(ctx context.Context) HealthStatus {
	now := time.Now().UTC()
	var one int
	if err := g.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return HealthStatus{Status: StatusUnhealthy, Timestamp: now, Error: err.Error()}
	}
	return HealthStatus{Status: StatusHealthy, Timestamp: now}
}
