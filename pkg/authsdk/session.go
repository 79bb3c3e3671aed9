package authsdk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Session represents a signed-in user. The access token stays in memory;
// renewal is driven by 401 responses rather than a local expiry clock.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
	user        IdentityResponse

	renewals singleflight.Group
}

func newSession(client *SDKClient, accessToken string, user IdentityResponse) *Session {
	return &Session{
		client:      client,
		accessToken: accessToken,
		user:        user,
	}
}

// AccessToken returns the current access token, or "" for cookie sessions.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns the identity captured at login or at the last renewal.
func (s *Session) User() IdentityResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Do sends an authenticated request. On a 401 it renews once and retries
// once; it never loops. Callers must close the returned body.
func (s *Session) Do(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	token := s.AccessToken()
	resp, err := s.send(ctx, method, path, body, headers, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	challenge := resp.Header.Get("WWW-Authenticate")
	discard(resp)

	if token == "" {
		// Cookie sessions cannot be renewed.
		return nil, ErrSessionExpired
	}
	if desc := challengeDescription(challenge); desc != descExpired {
		// A forged, garbled or missing token is not cured by renewal.
		return nil, fmt.Errorf("%w: access token rejected (%s)", ErrSessionExpired, desc)
	}

	fresh, err := s.renew(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err = s.send(ctx, method, path, body, headers, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, fmt.Errorf("%w: rejected after renewal", ErrSessionExpired)
	}
	return resp, nil
}

// renew exchanges the refresh cookie for a new access token. Concurrent
// callers holding the same stale token share one call, and a caller whose
// token was already replaced just picks up the new one.
func (s *Session) renew(ctx context.Context, stale string) (string, error) {
	v, err, _ := s.renewals.Do("renew", func() (any, error) {
		if current := s.AccessToken(); current != stale {
			return current, nil
		}

		resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/auth/refresh", nil, nil)
		if err != nil {
			return nil, err
		}
		var tok TokenResponse
		if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
			}
			return nil, err
		}

		s.mu.Lock()
		s.accessToken = tok.AccessToken
		if tok.User != nil {
			s.user = *tok.User
		}
		s.mu.Unlock()
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Session) send(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
	token string,
) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	if token != "" {
		h["Authorization"] = "Bearer " + token
	}
	return s.client.doRequest(ctx, method, path, r, h)
}

// Me returns the identity the server resolves for this session.
func (s *Session) Me(ctx context.Context) (*IdentityResponse, error) {
	resp, err := s.Do(ctx, http.MethodGet, "/v1/me", nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var id IdentityResponse
	if err := decodeJSON(resp, &id, http.StatusOK); err != nil {
		return nil, err
	}
	return &id, nil
}

// Logout ends the session server-side and drops the in-memory token.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if err := checkStatusNoContent(resp); err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
	return nil
}

const descExpired = "expired"

// challengeDescription extracts error_description from a Bearer
// WWW-Authenticate challenge, e.g.
// `Bearer error="invalid_token", error_description="expired"`.
func challengeDescription(challenge string) string {
	scheme, params, ok := strings.Cut(challenge, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	for param := range strings.SplitSeq(params, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && k == "error_description" {
			return strings.Trim(v, `"`)
		}
	}
	return ""
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
