package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Services can override each of them.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultSessionTTL      = 7 * 24 * time.Hour
)

// Token uses. A session token (cookie strategy) must never be accepted where
// an access token is expected and vice versa.
const (
	UseAccess  = "access"
	UseSession = "session"
)

// Claims is the verified payload of every token we mint. Role is mandatory
// and set at issuance.
type Claims struct {
	jwt.RegisteredClaims

	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// Session ID, stable across refresh rotations.
	SID string `json:"sid,omitempty"`

	Use string `json:"use"`
}

// ClaimsParams groups the values NewClaims needs.
type ClaimsParams struct {
	Subject   string
	Role      string
	Name      string
	Email     string
	SessionID string
	Use       string
	Issuer    string
	Audience  []string
	TTL       time.Duration
}

// NewClaims builds minimally-correct claims issued at now.
func NewClaims(p ClaimsParams, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings(p.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		Role:  p.Role,
		Name:  p.Name,
		Email: p.Email,
		SID:   p.SessionID,
		Use:   p.Use,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Validate is called by the jwt parser after the registered claims checks.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return ErrInvalidClaim
	}
	if c.Role == "" {
		return ErrInvalidClaim
	}
	if c.Use != UseAccess && c.Use != UseSession {
		return ErrInvalidClaim
	}
	return nil
}

// ExpiresIn returns the remaining lifetime relative to now, floored at zero.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
