// Package audit records who did what to which resource. Recording is best-effort: no method
// returns an error and a failed write never affects the caller's operation.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/audit/domain"
	auditrepo "bizzytrack/backend/internal/audit/repository"
	"bizzytrack/backend/internal/audit/stream"
	"bizzytrack/backend/internal/metrics"
	"bizzytrack/backend/internal/server/middleware"
)

// Verbs used by the Create/Update/Delete wrappers.
const (
	VerbCreated = "created"
	VerbUpdated = "updated"
	VerbDeleted = "deleted"
)

// DefaultWriteTimeout bounds one insert when no timeout is configured.
const DefaultWriteTimeout = 5 * time.Second

// ActionName returns the dot-namespaced action, e.g. ActionName("customer", VerbCreated) is "customer.created".
func ActionName(resourceType, verb string) string {
	return resourceType + "." + verb
}

// Entry describes one action to record. Empty BusinessID, UserID, IPAddress and UserAgent are
// filled from the Request Context (or client metadata) in ctx. OldValues, NewValues and Metadata
// are typed snapshots encoded as JSON; nil is stored as NULL.
type Entry struct {
	BusinessID   string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	OldValues    any
	NewValues    any
	IPAddress    string
	UserAgent    string
	Metadata     any
}

// Recorder appends audit entries.
type Recorder interface {
	LogAction(ctx context.Context, e Entry)
	// LogCreate, LogUpdate and LogDelete require a Request Context in ctx; without one the entry is dropped.
	LogCreate(ctx context.Context, resourceType, resourceID string, newValues any)
	LogUpdate(ctx context.Context, resourceType, resourceID string, oldValues, newValues any)
	LogDelete(ctx context.Context, resourceType, resourceID string, oldValues any)
}

// Option configures a recorder.
type Option func(*base)

// WithLogger sets the logger for dropped and failed entries.
func WithLogger(l *zap.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics counts written, dropped and failed entries.
func WithMetrics(m *metrics.Metrics) Option { return func(b *base) { b.metrics = m } }

// WithPublishers fans committed entries out to the given sinks.
func WithPublishers(ps ...stream.Publisher) Option {
	return func(b *base) {
		for _, p := range ps {
			if p != nil {
				b.publishers = append(b.publishers, p)
			}
		}
	}
}

// WithWriteTimeout bounds each insert. The timeout is independent of request cancellation.
func WithWriteTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) Option { return func(b *base) { b.now = now } }

type base struct {
	repo       auditrepo.Repository
	logger     *zap.Logger
	metrics    *metrics.Metrics
	publishers []stream.Publisher
	timeout    time.Duration
	now        func() time.Time
	submit     func(ctx context.Context, a *domain.AuditLog)
}

func newBase(repo auditrepo.Repository, opts []Option) *base {
	b := &base{
		repo:    repo,
		logger:  zap.NewNop(),
		timeout: DefaultWriteTimeout,
		now:     time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// LogAction records e. It never fails the caller.
func (b *base) LogAction(ctx context.Context, e Entry) {
	a, ok := b.prepare(ctx, e)
	if !ok {
		return
	}
	b.submit(ctx, a)
}

func (b *base) LogCreate(ctx context.Context, resourceType, resourceID string, newValues any) {
	b.fromRequest(ctx, Entry{
		Action:       ActionName(resourceType, VerbCreated),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		NewValues:    newValues,
	})
}

func (b *base) LogUpdate(ctx context.Context, resourceType, resourceID string, oldValues, newValues any) {
	b.fromRequest(ctx, Entry{
		Action:       ActionName(resourceType, VerbUpdated),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    oldValues,
		NewValues:    newValues,
	})
}

func (b *base) LogDelete(ctx context.Context, resourceType, resourceID string, oldValues any) {
	b.fromRequest(ctx, Entry{
		Action:       ActionName(resourceType, VerbDeleted),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    oldValues,
	})
}

func (b *base) fromRequest(ctx context.Context, e Entry) {
	if _, ok := middleware.FromContext(ctx); !ok {
		b.drop("audit: no request context, entry dropped", e)
		return
	}
	b.LogAction(ctx, e)
}

// prepare fills attribution from ctx, enforces the tenant rules and encodes payloads.
func (b *base) prepare(ctx context.Context, e Entry) (*domain.AuditLog, bool) {
	if rc, ok := middleware.FromContext(ctx); ok {
		if e.BusinessID == "" {
			e.BusinessID = rc.BusinessID
		} else if e.BusinessID != rc.BusinessID {
			b.drop("audit: business id differs from request context, entry dropped", e)
			return nil, false
		}
		if e.UserID == "" {
			e.UserID = rc.UserID
		}
	}
	var requestID string
	if ci, ok := middleware.ClientInfoFromContext(ctx); ok {
		if e.IPAddress == "" {
			e.IPAddress = ci.IPAddress
		}
		if e.UserAgent == "" {
			e.UserAgent = ci.UserAgent
		}
		requestID = ci.RequestID
	}
	if e.BusinessID == "" {
		b.drop("audit: entry without business id dropped", e)
		return nil, false
	}
	if e.Action == "" || e.ResourceType == "" {
		b.drop("audit: entry without action or resource type dropped", e)
		return nil, false
	}

	oldValues, err1 := encode(e.OldValues)
	newValues, err2 := encode(e.NewValues)
	if e.Metadata == nil && requestID != "" {
		e.Metadata = map[string]string{"request_id": requestID}
	}
	meta, err3 := encode(e.Metadata)
	if err := errors.Join(err1, err2, err3); err != nil {
		b.logger.Warn("audit: encode payload failed", zap.String("action", e.Action), zap.Error(err))
		b.metrics.AuditWriteFailed("encode")
		return nil, false
	}

	a := &domain.AuditLog{
		ID:           uuid.NewString(),
		BusinessID:   e.BusinessID,
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		OldValues:    oldValues,
		NewValues:    newValues,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		Metadata:     meta,
		CreatedAt:    b.now().UTC(),
	}
	if e.ResourceID != "" {
		id := e.ResourceID
		a.ResourceID = &id
	}
	return a, true
}

// write inserts a under its own timeout, detached from the caller's cancellation, then publishes it.
func (b *base) write(ctx context.Context, a *domain.AuditLog) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()

	if err := b.repo.Create(wctx, a); err != nil {
		reason := "database"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		b.logger.Warn("audit: write failed",
			zap.String("action", a.Action),
			zap.String("resource_type", a.ResourceType),
			zap.String("business_id", a.BusinessID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		b.metrics.AuditWriteFailed(reason)
		return
	}
	b.metrics.AuditWritten()

	for _, p := range b.publishers {
		if err := p.Publish(wctx, a); err != nil {
			b.logger.Warn("audit: publish failed", zap.String("publisher", p.Name()), zap.String("action", a.Action), zap.Error(err))
			b.metrics.AuditPublishFailed(p.Name())
		}
	}
}

func (b *base) drop(msg string, e Entry) {
	b.logger.Warn(msg,
		zap.String("action", e.Action),
		zap.String("resource_type", e.ResourceType),
		zap.String("resource_id", e.ResourceID),
	)
	b.metrics.AuditDropped()
}

// encode turns a snapshot into JSON. json.RawMessage is stored as given.
func encode(v any) (json.RawMessage, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(t) == 0 {
			return nil, nil
		}
		if !json.Valid(t) {
			return nil, errors.New("invalid raw JSON")
		}
		return t, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}
