// Package stream fans committed audit entries out to secondary sinks (Kafka, OpenTelemetry logs).
// Publishing is best-effort; the database row is the record of truth.
package stream

import (
	"context"

	"bizzytrack/backend/internal/audit/domain"
)

// Publisher sends one committed audit entry to a secondary sink.
type Publisher interface {
	// Name identifies the publisher in logs and metrics.
	Name() string
	Publish(ctx context.Context, a *domain.AuditLog) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
