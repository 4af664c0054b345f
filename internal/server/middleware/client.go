package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Client attaches ClientInfo to every request. It must run after chi's RequestID middleware.
func Client(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ci := ClientInfo{
			IPAddress: ClientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: chimw.GetReqID(r.Context()),
		}
		next.ServeHTTP(w, r.WithContext(WithClientInfo(r.Context(), ci)))
	})
}
