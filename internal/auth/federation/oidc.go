package federation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	googleJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"

	// jwksMinRefresh bounds how often an unknown kid may trigger a refetch.
	jwksMinRefresh = 30 * time.Second
)

// OIDCConfig describes an OpenID Connect provider using RS256 ID tokens.
type OIDCConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	JWKSURL      string
	Issuers      []string
	Scopes       []string

	HTTPClient *http.Client
	Now        func() time.Time
}

// Google returns the configuration for Google accounts.
func Google(clientID, clientSecret, redirectURL string) OIDCConfig {
	return OIDCConfig{
		Name:         "google",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		AuthURL:      googleAuthURL,
		TokenURL:     googleTokenURL,
		JWKSURL:      googleJWKSURL,
		Issuers:      []string{"https://accounts.google.com", "accounts.google.com"},
	}
}

// OIDCProvider exchanges codes with x/oauth2 and verifies the returned
// id_token against the provider's published keys.
type OIDCProvider struct {
	cfg    OIDCConfig
	oauth  *oauth2.Config
	client *http.Client
	parser *jwt.Parser

	keys        *jwtx.KeySet
	mu          sync.Mutex
	lastFetched time.Time
}

func NewOIDC(cfg OIDCConfig) *OIDCProvider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"openid", "email", "profile"}
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(cfg.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}

	return &OIDCProvider{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: client,
		parser: jwt.NewParser(opts...),
		keys:   jwtx.NewKeySet(),
	}
}

func (p *OIDCProvider) Name() string { return p.cfg.Name }

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (domain.ProviderAssertion, error) {
	if code == "" {
		return domain.ProviderAssertion{}, errors.New("missing authorization code")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.ProviderAssertion{}, errors.Wrap(err, "failed to exchange code for token")
	}

	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return domain.ProviderAssertion{}, errors.Wrap(ErrIDToken, "token response has no id_token")
	}
	return p.Verify(ctx, raw)
}

// idTokenClaims is the subset of OIDC claims we rely on.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
}

// Verify checks an ID token's signature, audience, issuer and expiry.
func (p *OIDCProvider) Verify(ctx context.Context, raw string) (domain.ProviderAssertion, error) {
	var claims idTokenClaims
	_, err := p.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return p.key(ctx, kid)
	})
	if err != nil {
		return domain.ProviderAssertion{}, errors.Wrapf(ErrIDToken, "%v", err)
	}

	iss, _ := claims.GetIssuer()
	if len(p.cfg.Issuers) > 0 && !slices.Contains(p.cfg.Issuers, iss) {
		return domain.ProviderAssertion{}, errors.Wrapf(ErrIDToken, "unexpected issuer %q", iss)
	}
	if claims.Subject == "" {
		return domain.ProviderAssertion{}, errors.Wrap(ErrIDToken, "missing subject")
	}

	return domain.ProviderAssertion{
		Provider:      p.cfg.Name,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// key returns the verification key for kid, refetching the provider JWKS
// when the kid is unknown and the last fetch is old enough.
func (p *OIDCProvider) key(ctx context.Context, kid string) (any, error) {
	if k, err := p.keys.Get(kid); err == nil {
		return k, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if k, err := p.keys.Get(kid); err == nil {
		return k, nil
	}
	if !p.lastFetched.IsZero() && p.now().Sub(p.lastFetched) < jwksMinRefresh {
		return nil, jwtx.ErrUnknownKID
	}
	if err := p.fetchKeys(ctx); err != nil {
		return nil, err
	}
	return p.keys.Get(kid)
}

func (p *OIDCProvider) fetchKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.JWKSURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create jwks request")
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to fetch jwks")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("jwks request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var set jwtx.JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return errors.Wrap(err, "failed to decode jwks")
	}
	if err := p.keys.ResetFromJWKS(set); err != nil {
		return errors.Wrap(err, "failed to load jwks")
	}
	p.lastFetched = p.now()
	return nil
}

func (p *OIDCProvider) now() time.Time {
	if p.cfg.Now != nil {
		return p.cfg.Now()
	}
	return time.Now()
}

// flexBool accepts both true and "true"; some providers send the string.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}
