// Package auth verifies bearer tokens and mints guest tokens.
//
// Users authenticate with an HS256 JWT whose subject is the user ID and whose
// roles claim may contain AdminRole. Guests carry an opaque random token that
// the storefront hands out on first contact.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/bespoke/internal/domain"
)

// AdminRole grants access to the fulfillment endpoints.
const AdminRole = "admin"

// guestTokenBytes is the entropy of a guest token before encoding.
const guestTokenBytes = 32

// MinSecretLength is the shortest HS256 secret accepted.
const MinSecretLength = 32

var (
	ErrMissingSubject = errors.New("token subject is required")
	ErrShortSecret    = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
)

// Claims are the JWT claims accepted from storefront clients.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Identity converts verified claims into the caller identity.
func (c *Claims) Identity() domain.Identity {
	return domain.UserIdentity(c.Subject, c.HasRole(AdminRole))
}

// Tokens verifies and issues HS256 user tokens.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokens creates a token verifier/issuer. The issuer is checked on verify
// when non-empty.
func NewTokens(secret, issuer string) (*Tokens, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrShortSecret
	}
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Verify parses tokenStr and returns its claims.
func (t *Tokens) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Issue signs a token for userID. Used by operator tooling and tests; the
// storefront itself never logs users in.
func (t *Tokens) Issue(userID string, roles []string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrMissingSubject
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// NewGuestToken returns a fresh URL-safe guest token.
func NewGuestToken() (string, error) {
	b := make([]byte, guestTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate guest token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidGuestToken reports whether s looks like a token from NewGuestToken.
func ValidGuestToken(s string) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(guestTokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}
