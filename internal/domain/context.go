// Package domain provides core business types and context helpers for the
// ordering service.
//
// Context helpers centralize request-scoped identity access so that every
// cart and order call is keyed by exactly one owner.
package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// identityContextKey stores the caller identity in context.
	identityContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// IdentityKind distinguishes authenticated users from anonymous guests.
type IdentityKind string

const (
	IdentityUser  IdentityKind = "user"
	IdentityGuest IdentityKind = "guest"
)

// Identity is the caller of a cart or order operation, supplied by the
// session provider. Guests are identified by an opaque bearer token.
type Identity struct {
	Kind  IdentityKind
	ID    string // user ID (JWT subject) or guest token
	Admin bool
}

// UserIdentity returns the identity of an authenticated user.
func UserIdentity(userID string, admin bool) Identity {
	return Identity{Kind: IdentityUser, ID: userID, Admin: admin}
}

// GuestIdentity returns the identity of an anonymous guest.
func GuestIdentity(token string) Identity {
	return Identity{Kind: IdentityGuest, ID: token}
}

// IsGuest reports whether the identity is an anonymous guest.
func (i Identity) IsGuest() bool {
	return i.Kind == IdentityGuest
}

// IsZero reports whether no identity was established.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// OwnerKey is the persistence key for carts and orders owned by this identity.
// Guest tokens are hashed so the raw bearer value never reaches the database.
func (i Identity) OwnerKey() string {
	if i.Kind == IdentityGuest {
		sum := sha256.Sum256([]byte(i.ID))
		return "guest:" + hex.EncodeToString(sum[:])
	}
	return "user:" + i.ID
}

// --- Identity Context Helpers ---

// NewContextWithIdentity returns a new context with the identity attached.
func NewContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity from context.
// The second return value is false if no identity is present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || identity.IsZero() {
		return Identity{}, false
	}
	return identity, true
}

// MustIdentity retrieves the identity from context, panicking if not present.
// The panic will be caught by recovery middleware in HTTP handlers.
func MustIdentity(ctx context.Context) Identity {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		panic("identity required in context but not found")
	}
	return identity
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
