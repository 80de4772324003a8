// Package handler holds the HTTP plumbing shared by the storefront and admin
// handlers: JSON encoding, request decoding and error responses.
package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/middleware"
	"github.com/dukerupert/bespoke/internal/telemetry"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	ProductIDs []uuid.UUID       `json:"productIds,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
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

// ErrorResponse writes err as a JSON error.
//
// Validation errors carry per-field messages and stock conflicts carry the
// offending product IDs. Internal errors are logged with their cause,
// reported to Sentry and shown to the client as a generic retryable message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger := middleware.GetLogger(r.Context())

	detail := errorDetail{
		Code:    domain.ErrorCode(err),
		Message: domain.ErrorMessage(err),
		Fields:  domain.GetValidationFields(err),
	}
	var conflict *domain.StockConflictError
	if errors.As(err, &conflict) {
		detail.ProductIDs = conflict.ProductIDs
	}

	status := ErrorCodeToHTTPStatus(detail.Code)
	attrs := []any{
		"error", err.Error(),
		"code", detail.Code,
		"op", domain.ErrorOp(err),
		"status", status,
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
			"path":       r.URL.Path,
			"method":     r.Method,
			"request_id": middleware.GetRequestID(r.Context()),
		})
	} else {
		logger.Info("request rejected", attrs...)
	}

	JSON(w, status, errorBody{Error: detail})
}

// Unauthorized writes a 401 for handlers reached without an identity.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Unauthorized("", "Authentication required"))
}
