// Package respond writes JSON responses and maps errors to HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bizzytrack/backend/internal/db"
	"bizzytrack/backend/internal/platform/apperr"
	"bizzytrack/backend/internal/security"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSON writes v with status. Encoding failures are ignored; the header is already sent.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Fail writes an error body with an explicit status and code.
func Fail(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// Error maps err to a status code and writes it. Unclassified errors are logged and
// reported as a generic 500 so driver or internal details never reach the client.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.Is(err, security.ErrExpiredToken):
		Fail(w, http.StatusUnauthorized, "token_expired", "token expired")
	case errors.Is(err, security.ErrInvalidToken):
		Fail(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.Is(err, apperr.ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		Fail(w, http.StatusForbidden, "forbidden", "permission denied")
	case errors.Is(err, apperr.ErrNotFound):
		Fail(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperr.ErrConflict), db.IsUniqueViolation(err):
		Fail(w, http.StatusConflict, "conflict", conflictMessage(err))
	case errors.As(err, &ve):
		Fail(w, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, apperr.ErrInvalid):
		Fail(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, security.ErrHashing), errors.Is(err, security.ErrMalformedHash):
		if logger != nil {
			logger.Error("credential operation failed", zap.Error(err))
		}
		Fail(w, http.StatusInternalServerError, "internal", "internal server error")
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		Fail(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, apperr.ErrConflict) {
		return err.Error()
	}
	return "resource already exists"
}

// Decode reads a JSON request body (at most 1 MiB) into v.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("body", "malformed JSON")
	}
	return nil
}
