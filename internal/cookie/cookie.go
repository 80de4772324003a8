// Package cookie provides the guest identity cookie helpers.
// Guests are recognized across requests by an opaque token carried in a
// single HttpOnly cookie scoped to the storefront domain.
package cookie

import (
	"net/http"
	"time"
)

// GuestName is the cookie that carries the guest token.
const GuestName = "bespoke_guest"

// DefaultGuestMaxAge keeps a guest cart reachable for 30 days.
const DefaultGuestMaxAge = 30 * 24 * 60 * 60

// Config holds cookie configuration for the guest cookie.
type Config struct {
	// Domain scopes the cookie. Empty means host-only.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool

	// MaxAge in seconds. Zero means DefaultGuestMaxAge.
	MaxAge int
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("shop.example.com", true)  // production
//	cfg := cookie.NewConfig("", false)                 // development
func NewConfig(domain string, secure bool) *Config {
	return &Config{
		Domain: domain,
		Secure: secure,
	}
}

func (c *Config) maxAge() int {
	if c.MaxAge > 0 {
		return c.MaxAge
	}
	return DefaultGuestMaxAge
}

// SetGuest writes the guest token cookie.
//
// The cookie will be set with:
//   - Path: "/" (available on all paths)
//   - HttpOnly: true (not accessible via JavaScript)
//   - SameSite: Lax
//   - Secure: based on config
func (c *Config) SetGuest(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     GuestName,
		Value:    token,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   c.maxAge(),
		Expires:  time.Now().Add(time.Duration(c.maxAge()) * time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearGuest expires the guest cookie, typically after the guest cart has
// been claimed by a signed-in user.
func (c *Config) ClearGuest(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     GuestName,
		Value:    "",
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get returns the named cookie's value, or "" if absent.
func Get(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
