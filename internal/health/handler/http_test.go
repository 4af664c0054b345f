package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/db"
)

type stubDB struct{ status db.HealthStatus }

func (s stubDB) HealthCheck(ctx context.Context) db.HealthStatus { return s.status }

type stubPolicy struct{ err error }

func (s stubPolicy) HealthCheck(ctx context.Context) error { return s.err }

type panicDB struct{}

func (panicDB) HealthCheck(ctx context.Context) db.HealthStatus { panic("boom") }

func get(t *testing.T, h *Handler) (*httptest.ResponseRecorder, db.HealthStatus) {
	t.Helper()
	r := chi.NewRouter()
	h.Public(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var body db.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	now := time.Now().UTC()
	testCases := []struct {
		name     string
		db       DatabaseChecker
		policy   PolicyChecker
		wantCode int
		wantErr  string
	}{
		{"healthy", stubDB{db.HealthStatus{Status: db.StatusHealthy, Timestamp: now}}, stubPolicy{}, http.StatusOK, ""},
		{"database down", stubDB{db.HealthStatus{Status: db.StatusUnhealthy, Timestamp: now, Error: "connection refused"}}, stubPolicy{}, http.StatusServiceUnavailable, "connection refused"},
		{"policy broken", stubDB{db.HealthStatus{Status: db.StatusHealthy, Timestamp: now}}, stubPolicy{errors.New("undefined ref")}, http.StatusServiceUnavailable, "policy: undefined ref"},
		{"no database", nil, nil, http.StatusServiceUnavailable, "database not configured"},
		{"panicking probe", panicDB{}, nil, http.StatusServiceUnavailable, "health check panicked"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := get(t, NewHandler(tc.db, tc.policy, nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, body.Error)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestHealth_WithGateway(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	rec, body := get(t, NewHandler(db.NewGateway(sqlDB, zap.NewNop()), nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.StatusHealthy, body.Status)
}
