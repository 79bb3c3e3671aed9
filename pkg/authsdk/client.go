package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// SDKClient is a client for the gatehouse authentication service. Its cookie
// jar holds the refresh or session cookie between requests.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with its own cookie jar.
func NewSDKClient(baseURL string) (*SDKClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			// Logins may answer 303 to a callback; surface it instead.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}, nil
}

// Register creates an account. A taken email yields ErrEmailTaken and
// missing fields an *APIError with code validation_error.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*IdentityResponse, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/register", req)
	if err != nil {
		return nil, err
	}

	var id IdentityResponse
	if err := decodeJSON(resp, &id, http.StatusCreated); err != nil {
		return nil, err
	}
	return &id, nil
}

// Login signs in with email and password. Failures are always
// ErrInvalidCredentials regardless of which part was wrong.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	// Bearer deployments answer with a token, cookie deployments with the
	// identity alone.
	var body struct {
		TokenResponse
		IdentityResponse
	}
	if err := decodeJSON(resp, &body, http.StatusOK); err != nil {
		return nil, err
	}

	user := body.User
	if user == nil {
		user = &body.IdentityResponse
	}
	return newSession(c, body.AccessToken, *user), nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetJWKS retrieves the JSON Web Key Set for token verification.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}
	return &jwks, nil
}

func (c *SDKClient) postJSON(ctx context.Context, path string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
}
