package domain

import "time"

// TokenPair is what a bearer login or renewal produces: the short-lived
// access token (JWT) and the opaque refresh token destined for an HTTP-only
// cookie.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresAt time.Time
	Identity         Identity
}

// RefreshToken models the stored refresh token record in the DB.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string // deterministic fingerprint (base64url SHA-256)
	SessionID  string // stays the same across rotations
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy string // id of the token minted when this one was rotated
	CreatedAt  time.Time
}

func (t RefreshToken) Revoked() bool { return t.RevokedAt != nil }

func (t RefreshToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
