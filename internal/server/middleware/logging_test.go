package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bizzytrack/backend/internal/metrics"
	"bizzytrack/backend/internal/security"
)

func TestRequestLogger_RecordsRouteAndIdentity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := security.NewTestTokenProvider()
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(chimw.RequestID, Client, RequestLogger(zap.New(core)), Instrument(m))
	r.With(Authenticate(p, nil)).Get("/api/customers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/customers/c-1", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, p))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/customers/{id}", fields["route"])
	assert.Equal(t, int64(200), fields["status"])
	assert.Equal(t, "biz-1", fields["business_id"])
	assert.NotEmpty(t, fields["request_id"])

	mrec := httptest.NewRecorder()
	m.Handler().ServeHTTP(mrec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, mrec.Body.String(), `bizzytrack_http_requests_total{method="GET",route="/api/customers/{id}",status="200"} 1`)
}

func TestRequestLogger_UnauthorizedLoggedAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	r.Use(RequestLogger(zap.New(core)))
	r.With(Authenticate(security.NewTestTokenProvider(), nil)).Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	_, hasBusiness := entries[0].ContextMap()["business_id"]
	assert.False(t, hasBusiness)
}

func TestClient_AttachesClientInfo(t *testing.T) {
	var ci ClientInfo
	h := chimw.RequestID(Client(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ci, _ = ClientInfoFromContext(r.Context())
	})))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Real-IP", "198.51.100.4")
	req.Header.Set("User-Agent", "ua/1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "198.51.100.4", ci.IPAddress)
	assert.Equal(t, "ua/1", ci.UserAgent)
	assert.NotEmpty(t, ci.RequestID)
}
