// Package server assembles the HTTP API: global middleware, public routes and the authenticated group.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/metrics"
	"bizzytrack/backend/internal/server/middleware"
)

// PublicMounter mounts routes that need no session.
type PublicMounter interface {
	Public(r chi.Router)
}

// ProtectedMounter mounts routes behind Authenticate.
type ProtectedMounter interface {
	Protected(r chi.Router)
}

// Deps holds everything the router mounts. Nil mounters are skipped.
type Deps struct {
	Tokens  middleware.TokenVerifier
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	Health   PublicMounter
	Identity interface {
		PublicMounter
		ProtectedMounter
	}
	Customers ProtectedMounter
	Audit     ProtectedMounter

	// CORSOrigins defaults to "*".
	CORSOrigins []string
	// RateLimitPerMinute is per client IP; zero disables the limiter.
	RateLimitPerMinute int
	// Tracing wraps the router with otelhttp spans.
	Tracing bool
}

// NewRouter returns the API handler.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Client)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Instrument(deps.Metrics))
	// Innermost, so a panic still reaches the logger and metrics as a 500.
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if deps.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(deps.RateLimitPerMinute, time.Minute))
	}

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	if deps.Health != nil {
		deps.Health.Public(r)
	}
	if deps.Identity != nil {
		deps.Identity.Public(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Tokens, logger))
		for _, m := range []ProtectedMounter{deps.Identity, deps.Customers, deps.Audit} {
			if m != nil {
				m.Protected(r)
			}
		}
	})

	if deps.Tracing {
		return otelhttp.NewHandler(r, "bizzytrack-api")
	}
	return r
}
