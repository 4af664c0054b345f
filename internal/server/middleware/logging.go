package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var logSlotKey = contextKey{"log_slot"}

// logSlot lets Authenticate, which runs deeper in the chain, report identity back to RequestLogger.
type logSlot struct {
	businessID string
	userID     string
}

func annotate(ctx context.Context, rc RequestContext) {
	if s, ok := ctx.Value(logSlotKey).(*logSlot); ok {
		s.businessID = rc.BusinessID
		s.userID = rc.UserID
	}
}

// RequestLogger logs one line per request with method, route pattern, status, duration and identity.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			slot := &logSlot{}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logSlotKey, slot)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", routePattern(r)),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			}
			if slot.businessID != "" {
				fields = append(fields, zap.String("business_id", slot.businessID), zap.String("user_id", slot.userID))
			}
			switch {
			case status >= 500:
				logger.Error("http request", fields...)
			case status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
