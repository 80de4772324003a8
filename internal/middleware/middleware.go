package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/bespoke/internal/domain"
)

// Middleware runs before handler, which imports this package, so error
// responses are written here with the same envelope as handler.ErrorResponse.

// respondWithError logs err and writes it as a JSON error.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := errorCodeToHTTPStatus(code)

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"op", domain.ErrorOp(err),
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if reqID := GetRequestID(r.Context()); reqID != "" {
		attrs = append(attrs, "request_id", reqID)
	}

	logger := GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed in middleware", attrs...)
	} else {
		logger.Info("request rejected by middleware", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": domain.ErrorMessage(err),
		},
	})
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, op, message string) {
	respondWithError(w, r, domain.Unauthorized(op, message))
}

func respondForbidden(w http.ResponseWriter, r *http.Request, op string) {
	respondWithError(w, r, domain.Forbidden(op, "Admin role required"))
}

func respondInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	respondWithError(w, r, domain.Internal(err, op, "middleware failure"))
}

func respondTooManyRequests(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, domain.Errorf(domain.ERATELIMIT, "ratelimit", "Too many requests, slow down"))
}

func respondTooLarge(w http.ResponseWriter, r *http.Request, limit int64) {
	respondWithError(w, r, domain.Errorf(domain.ETOOLARGE, "limits.body", "Request body exceeds %d bytes", limit))
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
