package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/v1/auth"
)

// BearerStrategy returns access tokens in response bodies and keeps the
// refresh token in an HTTP-only cookie scoped to the auth endpoints.
type BearerStrategy struct {
	Tokens  *service.TokenService
	Cookies CookieOptions
}

func (s *BearerStrategy) Name() string { return StrategyBearer }

func (s *BearerStrategy) Establish(ctx context.Context, w http.ResponseWriter, id domain.Identity) (*Grant, error) {
	pair, err := s.Tokens.IssuePair(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setRefresh(w, pair.RefreshToken, pair.RefreshExpiresAt)
	return &Grant{Identity: id, AccessToken: pair.AccessToken, ExpiresIn: pair.AccessExpiresIn}, nil
}

func (s *BearerStrategy) Resolve(r *http.Request) (jwtx.Claims, error) {
	token, ok := httpx.BearerToken(r)
	if !ok {
		return jwtx.Claims{}, ErrNoToken
	}
	return s.Tokens.VerifyAccess(token)
}

// Renew mints a new access token from the refresh cookie, rotating the
// cookie when the token service hands back a new refresh token. Any refresh
// failure clears the cookie.
func (s *BearerStrategy) Renew(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Grant, error) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoToken
	}

	pair, err := s.Tokens.Renew(ctx, c.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			s.clearRefresh(w)
		}
		return nil, err
	}
	if pair.RefreshToken != "" {
		s.setRefresh(w, pair.RefreshToken, pair.RefreshExpiresAt)
	}
	return &Grant{Identity: pair.Identity, AccessToken: pair.AccessToken, ExpiresIn: pair.AccessExpiresIn}, nil
}

// Terminate revokes the refresh token's session server-side and clears the
// cookie. The access token simply ages out.
func (s *BearerStrategy) Terminate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.clearRefresh(w)
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return s.Tokens.Revoke(ctx, c.Value)
	}
	return nil
}

func (s *BearerStrategy) setRefresh(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.Cookies.cookie(RefreshCookieName, token, RefreshCookiePath, http.SameSiteStrictMode, time.Until(exp)))
}

func (s *BearerStrategy) clearRefresh(w http.ResponseWriter) {
	http.SetCookie(w, s.Cookies.cookie(RefreshCookieName, "", RefreshCookiePath, http.SameSiteStrictMode, 0))
}
