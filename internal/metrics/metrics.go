// Package metrics holds the Prometheus collectors for the API process.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bizzytrack"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	auditWritten       prometheus.Counter
	auditDropped       prometheus.Counter
	auditWriteFailures *prometheus.CounterVec
	auditPublishErrors *prometheus.CounterVec
	auditQueueDepth    prometheus.Gauge
}

// New registers all collectors on a fresh registry, including process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		auditWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_written_total",
			Help:      "Audit log entries persisted.",
		}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_dropped_total",
			Help:      "Audit log entries dropped because the queue was full or closed.",
		}),
		auditWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit log inserts that failed, by reason.",
		}, []string{"reason"}),
		auditPublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_publish_failures_total",
			Help:      "Audit stream publish failures, by publisher.",
		}, []string{"publisher"}),
		auditQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_queue_depth",
			Help:      "Audit log entries waiting to be written.",
		}),
	}
	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.auditWritten,
		m.auditDropped,
		m.auditWriteFailures,
		m.auditPublishErrors,
		m.auditQueueDepth,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// HTTPStarted and HTTPFinished bracket a request. route should be a pattern, not a raw path.
func (m *Metrics) HTTPStarted() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

func (m *Metrics) HTTPFinished(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpInFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AuditWritten counts a persisted audit entry.
func (m *Metrics) AuditWritten() {
	if m == nil {
		return
	}
	m.auditWritten.Inc()
}

// AuditDropped counts an entry discarded before it reached the database.
func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

// AuditWriteFailed counts a failed insert. reason is a small fixed set (timeout, database, encode).
func (m *Metrics) AuditWriteFailed(reason string) {
	if m == nil {
		return
	}
	m.auditWriteFailures.WithLabelValues(reason).Inc()
}

// AuditPublishFailed counts a failed stream publish.
func (m *Metrics) AuditPublishFailed(publisher string) {
	if m == nil {
		return
	}
	m.auditPublishErrors.WithLabelValues(publisher).Inc()
}

// SetAuditQueueDepth reports the number of queued audit entries.
func (m *Metrics) SetAuditQueueDepth(n int) {
	if m == nil {
		return
	}
	m.auditQueueDepth.Set(float64(n))
}
