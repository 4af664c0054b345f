package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestAuditCounters(t *testing.T) {
	m := New()
	m.AuditDropped()
	m.AuditDropped()
	m.AuditWriteFailed("database")
	m.AuditWritten()
	m.SetAuditQueueDepth(3)

	out := scrape(t, m)
	assert.Contains(t, out, "bizzytrack_audit_dropped_total 2")
	assert.Contains(t, out, `bizzytrack_audit_write_failures_total{reason="database"} 1`)
	assert.Contains(t, out, "bizzytrack_audit_written_total 1")
	assert.Contains(t, out, "bizzytrack_audit_queue_depth 3")
}

func TestHTTPObservations(t *testing.T) {
	m := New()
	m.HTTPStarted()
	assert.Contains(t, scrape(t, m), "bizzytrack_http_inflight_requests 1")

	m.HTTPFinished("get", "/api/customers/{id}", http.StatusOK, 12*time.Millisecond)
	out := scrape(t, m)
	assert.Contains(t, out, "bizzytrack_http_inflight_requests 0")
	assert.Contains(t, out, `bizzytrack_http_requests_total{method="GET",route="/api/customers/{id}",status="200"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AuditDropped()
	m.AuditWriteFailed("timeout")
	m.AuditPublishFailed("kafka")
	m.HTTPStarted()
	m.HTTPFinished("GET", "/", 200, time.Millisecond)
}
