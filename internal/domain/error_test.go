package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "Quantity must be at least 1"},
			expected: "Quantity must be at least 1",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "cart.add_item", Message: "Quantity must be at least 1"},
			expected: "cart.add_item: Quantity must be at least 1",
		},
		{
			name:     "with cause",
			err:      &Error{Code: EINTERNAL, Op: "order.place", Message: "failed to save order", Err: errors.New("connection reset")},
			expected: "order.place: failed to save order: connection reset",
		},
		{
			name:     "cause without operation",
			err:      &Error{Code: EINTERNAL, Message: "failed to save order", Err: errors.New("connection reset")},
			expected: "failed to save order: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"domain error", Errorf(ENOTFOUND, "order.get", "Order not found"), ENOTFOUND},
		{"wrapped by fmt", fmt.Errorf("place: %w", ErrEmptySelection), EINVALID},
		{"validation error", NewValidationError("cart.add_item", "size", "is required"), EINVALID},
		{"stock conflict", &StockConflictError{}, ECONFLICT},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage_HidesInternalDetail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"user facing", Invalid("order.place", "Select at least one item"), "Select at least one item"},
		{"internal", Internal(errors.New("pq: deadlock detected"), "order.place", "failed to save order"), internalMessage},
		{"plain", errors.New("dial tcp: refused"), internalMessage},
		{"validation", NewValidationError("cart.add_item", "size", "is required"), "Some fields are invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorOp(t *testing.T) {
	if got := ErrorOp(fmt.Errorf("outer: %w", Forbidden("order.update_status", "admin only"))); got != "order.update_status" {
		t.Errorf("ErrorOp() = %q", got)
	}
	if got := ErrorOp(NewValidationError("cart.claim", "strategy", "is required")); got != "cart.claim" {
		t.Errorf("ErrorOp() = %q", got)
	}
	if got := ErrorOp(errors.New("plain")); got != "" {
		t.Errorf("ErrorOp() = %q, want empty", got)
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, EINTERNAL, "op", "msg") != nil {
		t.Fatal("WrapError(nil) should be nil")
	}

	cause := errors.New("connection reset")
	err := WrapError(cause, EINTERNAL, "cart.add_item", "failed to reserve stock")
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !IsCode(err, EINTERNAL) {
		t.Errorf("code = %q, want %q", ErrorCode(err), EINTERNAL)
	}
	if !IsCode(Unauthorized("auth.verify", "Invalid token"), EUNAUTHORIZED) {
		t.Error("Unauthorized should carry EUNAUTHORIZED")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("cart.add_item", "size", "is required")
	err = AddFieldError(err, "quantity", "must be at most 100")

	fields := GetValidationFields(err)
	if len(fields) != 2 {
		t.Fatalf("fields = %v, want 2 entries", fields)
	}
	if want := "cart.add_item: invalid quantity must be at most 100; size is required"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("decode: %w", err)
	if !IsValidationError(wrapped) {
		t.Error("IsValidationError should see through wrapping")
	}

	fresh := AddFieldError(errors.New("other"), "size", "is required")
	if !IsValidationError(fresh) {
		t.Error("AddFieldError on a non-validation error should start a new one")
	}
	if GetValidationFields(errors.New("plain")) != nil {
		t.Error("GetValidationFields on a plain error should be nil")
	}
}
