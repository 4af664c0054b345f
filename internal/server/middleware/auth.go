package middleware

import (
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"bizzytrack/backend/internal/security"
	"bizzytrack/backend/internal/server/respond"
)

const bearerPrefix = "bearer "

// TokenVerifier verifies a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// Authenticate requires a valid bearer token and attaches the RequestContext built from its claims
// and the transport metadata. Missing or invalid tokens get 401 invalid_token; expired ones 401 token_expired.
func Authenticate(tokens TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respond.Fail(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
				return
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				if errors.Is(err, security.ErrExpiredToken) {
					respond.Fail(w, http.StatusUnauthorized, "token_expired", "token expired")
					return
				}
				logger.Debug("auth: token rejected", zap.Error(err), zap.String("request_id", chimw.GetReqID(r.Context())))
				respond.Fail(w, http.StatusUnauthorized, "invalid_token", "invalid token")
				return
			}
			rc := RequestContext{
				BusinessID: claims.BusinessID,
				UserID:     claims.UserID,
				Role:       claims.Role,
				Email:      claims.Email,
				IPAddress:  ClientIP(r),
				UserAgent:  r.UserAgent(),
				RequestID:  chimw.GetReqID(r.Context()),
			}
			annotate(r.Context(), rc)
			next.ServeHTTP(w, r.WithContext(WithRequestContext(r.Context(), rc)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}
