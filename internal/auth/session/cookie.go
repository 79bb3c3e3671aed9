package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
)

const SessionCookieName = "session"

// CookieStrategy keeps the whole session in one encrypted cookie holding a
// signed session token. There is no renewal: once the token expires the
// request is anonymous again.
type CookieStrategy struct {
	Tokens  *service.TokenService
	Sealer  *cryptox.Sealer
	Cookies CookieOptions
}

func (s *CookieStrategy) Name() string { return StrategyCookie }

func (s *CookieStrategy) Establish(_ context.Context, w http.ResponseWriter, id domain.Identity) (*Grant, error) {
	token, exp, err := s.Tokens.IssueSessionToken(id)
	if err != nil {
		return nil, err
	}
	sealed, err := s.Sealer.Seal([]byte(token), []byte(SessionCookieName))
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, s.Cookies.cookie(SessionCookieName, sealed, "/", http.SameSiteLaxMode, time.Until(exp)))
	return &Grant{Identity: id}, nil
}

func (s *CookieStrategy) Resolve(r *http.Request) (jwtx.Claims, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return jwtx.Claims{}, ErrNoToken
	}

	token, err := s.Sealer.Open(c.Value, []byte(SessionCookieName))
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %v", jwtx.ErrMalformed, err)
	}

	claims, err := s.Tokens.VerifySession(string(token))
	if errors.Is(err, jwtx.ErrExpired) {
		// An expired session is indistinguishable from no session.
		return jwtx.Claims{}, fmt.Errorf("%w: session expired", ErrNoToken)
	}
	return claims, err
}

func (s *CookieStrategy) Terminate(_ context.Context, w http.ResponseWriter, _ *http.Request) error {
	http.SetCookie(w, s.Cookies.cookie(SessionCookieName, "", "/", http.SameSiteLaxMode, 0))
	return nil
}
