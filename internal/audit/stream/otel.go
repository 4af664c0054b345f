package stream

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"bizzytrack/backend/internal/audit/domain"
)

// OTelPublisher emits audit entries as OpenTelemetry log records.
type OTelPublisher struct {
	logger otellog.Logger
}

// NewOTelPublisher returns a publisher using provider, or nil when provider is nil.
func NewOTelPublisher(provider *sdklog.LoggerProvider) *OTelPublisher {
	if provider == nil {
		return nil
	}
	return &OTelPublisher{logger: provider.Logger("bizzytrack.audit")}
}

func (p *OTelPublisher) Name() string { return "otel" }

// Publish converts a to a log record: the entry's payload is the body and the identifying fields are attributes.
func (p *OTelPublisher) Publish(ctx context.Context, a *domain.AuditLog) error {
	if p == nil || a == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := a.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetEventName(a.Action)
	if len(a.NewValues) > 0 {
		rec.SetBody(otellog.BytesValue(a.NewValues))
	} else if len(a.OldValues) > 0 {
		rec.SetBody(otellog.BytesValue(a.OldValues))
	}
	rec.AddAttributes(
		otellog.String("audit.id", a.ID),
		otellog.String("business_id", a.BusinessID),
		otellog.String("action", a.Action),
		otellog.String("resource_type", a.ResourceType),
	)
	if a.ResourceID != nil {
		rec.AddAttributes(otellog.String("resource_id", *a.ResourceID))
	}
	if a.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", a.UserID))
	}
	if a.IPAddress != "" {
		rec.AddAttributes(otellog.String("ip_address", a.IPAddress))
	}
	p.logger.Emit(ctx, rec)
	return nil
}

// Close is a no-op; the provider is shut down by its owner.
func (p *OTelPublisher) Close() error { return nil }
