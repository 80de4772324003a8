package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Error codes. Handlers map them to HTTP statuses; services pick them.
const (
	ECONFLICT     = "conflict"     // stock shortfall, order not cancellable, rejected transition
	EINTERNAL     = "internal"     // persistence or connectivity failure; retryable, details hidden
	EINVALID      = "invalid"      // bad input or an empty checkout selection
	ENOTFOUND     = "not_found"    // order, product or cart line
	EUNAUTHORIZED = "unauthorized" // missing or invalid identity
	EFORBIDDEN    = "forbidden"    // identity lacks the admin role
	ETOOLARGE     = "too_large"    // request body over the limit
	ERATELIMIT    = "rate_limit"
)

const internalMessage = "Something went wrong on our side. Please try again."

// Error is a coded failure with a message safe to show the caller.
type Error struct {
	Code    string
	Message string

	// Op names the operation that failed, e.g. "cart.add_item". Logged, never shown.
	Op string

	// Err is the cause, kept for logs and errors.Is.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the first *Error or *ValidationError in
// err's chain. Anything else is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if IsValidationError(err) {
		return EINVALID
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the caller-facing message. Internal and unknown
// errors get a generic retry message so causes never leak.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	if IsValidationError(err) {
		return "Some fields are invalid"
	}
	return internalMessage
}

// ErrorOp returns the operation of the first *Error in err's chain.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}
	return ""
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Errorf creates a new domain error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code, operation and message to err. Nil stays nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// Invalid is shorthand for an EINVALID error without field detail.
func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Unauthorized is shorthand for an EUNAUTHORIZED error.
func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

// Forbidden is shorthand for an EFORBIDDEN error.
func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

// Internal wraps a persistence or infrastructure failure. The message is
// for logs; callers see the generic one.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// ValidationError reports per-field problems with a request, keyed by the
// field's JSON name.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	names := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	msg := "invalid " + strings.Join(parts, "; ")
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError adds field to err when it is a ValidationError, or starts a
// new one otherwise.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

// IsValidationError reports whether err's chain holds a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field messages, or nil for other errors.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
