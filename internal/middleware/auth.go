package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukerupert/bespoke/internal/auth"
	"github.com/dukerupert/bespoke/internal/cookie"
	"github.com/dukerupert/bespoke/internal/domain"
)

type contextKey string

// GuestTokenHeader lets API clients carry the guest token without cookies.
// It is also echoed on responses that mint a new token.
const GuestTokenHeader = "X-Guest-Token"

// TokenVerifier verifies bearer tokens. Implemented by *auth.Tokens.
type TokenVerifier interface {
	Verify(tokenStr string) (*auth.Claims, error)
}

// WithIdentity establishes the caller identity for every request.
//
// A bearer token makes the caller a user; an invalid one is rejected rather
// than downgraded to a guest. Without a bearer token the caller is a guest,
// recognized by the guest cookie or X-Guest-Token header. A guest with no
// usable token is issued a new one.
func WithIdentity(verifier TokenVerifier, cookies *cookie.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" {
				scheme, token, ok := strings.Cut(header, " ")
				if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
					respondUnauthorized(w, r, "auth.identity", "Invalid Authorization header format (expected 'Bearer <token>')")
					return
				}
				if verifier == nil {
					respondUnauthorized(w, r, "auth.identity", "Authentication not configured")
					return
				}
				claims, err := verifier.Verify(strings.TrimSpace(token))
				if err != nil {
					GetLogger(r.Context()).Debug("rejected bearer token", "error", err)
					respondUnauthorized(w, r, "auth.identity", "Invalid or expired token")
					return
				}
				ctx := domain.NewContextWithIdentity(r.Context(), claims.Identity())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := guestToken(r)
			if token == "" {
				var err error
				token, err = auth.NewGuestToken()
				if err != nil {
					respondInternalError(w, r, "auth.guest_token", err)
					return
				}
				if cookies != nil {
					cookies.SetGuest(w, token)
				}
				w.Header().Set(GuestTokenHeader, token)
			}

			ctx := domain.NewContextWithIdentity(r.Context(), domain.GuestIdentity(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// guestToken returns a well-formed guest token from the request, preferring
// the header over the cookie.
func guestToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(GuestTokenHeader)); auth.ValidGuestToken(token) {
		return token
	}
	if token := cookie.Get(r, cookie.GuestName); auth.ValidGuestToken(token) {
		return token
	}
	return ""
}

// RequireUser ensures the caller is a signed-in user, returning 401 if not.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := domain.IdentityFromContext(r.Context())
		if !ok || identity.IsGuest() {
			respondUnauthorized(w, r, "auth.require_user", "Sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := domain.IdentityFromContext(r.Context())
		if !ok || identity.IsGuest() {
			respondUnauthorized(w, r, "auth.require_admin", "Sign in required")
			return
		}
		if !identity.Admin {
			respondForbidden(w, r, "auth.require_admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SentryIdentity extracts the caller for error reports.
func SentryIdentity(ctx context.Context) (kind, id string, ok bool) {
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return "", "", false
	}
	return string(identity.Kind), identity.ID, true
}
