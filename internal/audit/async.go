package audit

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bizzytrack/backend/internal/audit/domain"
	auditrepo "bizzytrack/backend/internal/audit/repository"
)

// DefaultQueueSize is used when no queue size is configured.
const DefaultQueueSize = 1024

type job struct {
	ctx   context.Context
	entry *domain.AuditLog
}

// AsyncRecorder queues entries on a bounded channel drained by a fixed set of workers. Callers
// never block: a full queue drops the entry and counts it.
type AsyncRecorder struct {
	*base

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewAsyncRecorder starts workers goroutines draining a queue of queueSize entries.
// Call Close on shutdown to drain.
func NewAsyncRecorder(repo auditrepo.Repository, queueSize, workers int, opts ...Option) *AsyncRecorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = 1
	}
	r := &AsyncRecorder{
		base:  newBase(repo, opts),
		queue: make(chan job, queueSize),
	}
	r.submit = r.enqueue
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

func (r *AsyncRecorder) enqueue(ctx context.Context, a *domain.AuditLog) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("audit: recorder closed, entry dropped", zap.String("action", a.Action))
		r.metrics.AuditDropped()
		return
	}
	select {
	case r.queue <- job{ctx: context.WithoutCancel(ctx), entry: a}:
		r.metrics.SetAuditQueueDepth(len(r.queue))
	default:
		r.logger.Warn("audit: queue full, entry dropped",
			zap.String("action", a.Action),
			zap.String("business_id", a.BusinessID),
		)
		r.metrics.AuditDropped()
	}
}

func (r *AsyncRecorder) worker() {
	defer r.wg.Done()
	for j := range r.queue {
		r.write(j.ctx, j.entry)
		r.metrics.SetAuditQueueDepth(len(r.queue))
	}
}

// Close stops accepting entries and waits for queued ones to be written or for ctx to end.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Recorder = (*AsyncRecorder)(nil)
