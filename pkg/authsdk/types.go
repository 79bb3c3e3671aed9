package authsdk

import (
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

// ============================================================================
// Account Types
// ============================================================================

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" example:"Ada Lovelace"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// LoginRequest is the JSON body of POST /v1/auth/login. The endpoint also
// accepts a form body, in which case CallbackURL may name a relative path
// to redirect to afterwards.
type LoginRequest struct {
	Email       string `json:"email" example:"ada@example.com"`
	Password    string `json:"password" example:"correct horse battery staple"`
	CallbackURL string `json:"callback_url,omitempty" example:"/dashboard"`
}

// IdentityResponse is the caller-facing view of a user. It never carries
// credential material.
type IdentityResponse struct {
	ID    string `json:"id" example:"01JA3Z5C6M9P2Q8R4S7T0V1W2X"`
	Name  string `json:"name" example:"Ada Lovelace"`
	Email string `json:"email" example:"ada@example.com"`
	Role  string `json:"role" example:"user"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is returned by bearer logins and renewals. The refresh token
// is never in the body; it travels in an HTTP-only cookie.
type TokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type" example:"Bearer"`
	ExpiresIn   int               `json:"expires_in" example:"900"`
	User        *IdentityResponse `json:"user,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set returned from
// GET /.well-known/jwks.json. It is empty when tokens are signed with HS256.
type JWKSResponse jwtx.JWKS
