// Package session implements the two ways a browser keeps an authenticated
// session: a sealed, signed session cookie, or a bearer access token held in
// memory plus an HTTP-only refresh cookie.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

const (
	StrategyCookie = "cookie"
	StrategyBearer = "bearer"
)

// ErrNoToken means the request carries no session material at all.
var ErrNoToken = errors.New("session: no credential presented")

// Grant is what a successful Establish or Renew hands back to the caller.
// AccessToken is only set by the bearer strategy and must never be put in a
// cookie.
type Grant struct {
	Identity    domain.Identity
	AccessToken string
	ExpiresIn   time.Duration
}

// Strategy establishes, resolves and tears down sessions.
type Strategy interface {
	Name() string

	// Establish writes the session material for an authenticated identity.
	Establish(ctx context.Context, w http.ResponseWriter, id domain.Identity) (*Grant, error)

	// Resolve extracts verified claims from r. It returns ErrNoToken when
	// nothing is presented, otherwise a jwtx sentinel on failure.
	Resolve(r *http.Request) (jwtx.Claims, error)

	// Terminate clears the session material.
	Terminate(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Renewer is implemented by strategies that can mint a new credential from
// a refresh cookie.
type Renewer interface {
	Renew(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Grant, error)
}

// CookieOptions apply to every cookie a strategy writes.
type CookieOptions struct {
	Secure bool
	Domain string
}

func (o CookieOptions) cookie(name, value, path string, sameSite http.SameSite, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   o.Domain,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: sameSite,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	} else {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// IdentityFromClaims rebuilds the identity carried in verified claims.
func IdentityFromClaims(c jwtx.Claims) domain.Identity {
	return domain.Identity{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Role:  domain.Role(c.Role),
	}
}
