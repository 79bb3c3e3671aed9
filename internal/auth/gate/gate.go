// Package gate decides, before any handler runs, whether a request may
// proceed given the route's required role and the caller's session.
package gate

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// Reason explains a denial.
type Reason string

const (
	NoToken          Reason = "no_token"
	InsufficientRole Reason = "insufficient_role"
	Invalid          Reason = "invalid"
)

// Decision is the outcome of Authorize. Err holds the verification error
// behind an Invalid denial.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Claims   jwtx.Claims
	Identity domain.Identity
	Err      error
}

// Gate enforces Policy using the active session strategy.
type Gate struct {
	Strategy session.Strategy
	Policy   *Policy
	Metrics  *metrics.Metrics

	// LoginPath receives browser navigations without a usable session.
	// ForbiddenPath receives browsers whose role is too low.
	LoginPath     string
	ForbiddenPath string
}

// Authorize resolves the caller and checks it against required.
func (g *Gate) Authorize(r *http.Request, required domain.Role) Decision {
	claims, err := g.Strategy.Resolve(r)
	switch {
	case errors.Is(err, session.ErrNoToken):
		return Decision{Reason: NoToken, Err: err}
	case err != nil:
		return Decision{Reason: Invalid, Err: err}
	}

	id := session.IdentityFromClaims(claims)
	if !id.Role.Satisfies(required) {
		return Decision{Reason: InsufficientRole, Claims: claims, Identity: id}
	}
	return Decision{Allowed: true, Claims: claims, Identity: id}
}

// Middleware gates every request whose path is covered by the policy.
// Open paths pass through untouched.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		required, guarded := g.Policy.Required(r.URL.Path)
		if !guarded {
			next.ServeHTTP(w, r)
			return
		}
		g.enforce(w, r, required, next)
	})
}

// Require gates a single handler on role regardless of the policy. Claims
// already admitted by Middleware are reused when their role suffices.
func (g *Gate) Require(role domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, ok := httpx.ClaimsFromContext(r.Context()); ok && domain.Role(c.Role).Satisfies(role) {
				next.ServeHTTP(w, r)
				return
			}
			g.enforce(w, r, role, next)
		})
	}
}

func (g *Gate) enforce(w http.ResponseWriter, r *http.Request, required domain.Role, next http.Handler) {
	d := g.Authorize(r, required)
	l := slogx.FromContext(r.Context())

	if !d.Allowed {
		g.Metrics.GateDecision(required.String(), string(d.Reason))
		l.Info("gate denied",
			slog.String("path", r.URL.Path),
			slog.String("required_role", required.String()),
			slog.String("reason", string(d.Reason)),
		)
		g.deny(w, r, d)
		return
	}

	g.Metrics.GateDecision(required.String(), "allow")
	ctx := httpx.WithClaims(r.Context(), d.Claims)
	ctx = slogx.WithUser(ctx, d.Identity.ID, d.Identity.Role.String())
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	if httpx.WantsHTML(r) {
		target := g.ForbiddenPath
		if d.Reason != InsufficientRole {
			target = loginRedirect(g.LoginPath, r)
		}
		if target == "" {
			target = "/"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	switch d.Reason {
	case NoToken:
		httpx.WriteBearerError(w, http.StatusUnauthorized, "invalid_token", "missing")
	case Invalid:
		desc := "invalid"
		if jwtx.Renewable(d.Err) {
			desc = "expired"
		}
		httpx.WriteBearerError(w, http.StatusUnauthorized, "invalid_token", desc)
	default:
		httpx.WriteError(w, http.StatusForbidden, string(InsufficientRole), "this resource requires a higher role")
	}
}

func loginRedirect(loginPath string, r *http.Request) string {
	if loginPath == "" {
		loginPath = "/login"
	}
	return loginPath + "?" + url.Values{"callbackUrl": {r.URL.RequestURI()}}.Encode()
}
