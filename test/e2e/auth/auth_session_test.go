//go:build e2e

package auth_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestBearerSession covers the default strategy end to end: register,
// sign in, resolve the identity, then sign out.
func TestBearerSession(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := newClient(t, baseURL)

	session := registerAndLogin(t, client, "Bearer@Example.com")
	require.NotEmpty(t, session.AccessToken(), "bearer login should return an access token")
	require.Equal(t, "bearer@example.com", session.User().Email)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, session.User().ID, me.ID)
	require.Equal(t, "user", me.Role)

	require.NoError(t, session.Logout(t.Context()))

	_, err = session.Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrSessionExpired)
}

// TestCookieSession runs the same flow with the sealed session cookie.
func TestCookieSession(t *testing.T) {
	baseURL := setupAuthContainer(t, map[string]string{"AUTH_SESSION_STRATEGY": "cookie"})
	client := newClient(t, baseURL)

	session := registerAndLogin(t, client, "cookie@example.com")
	require.Empty(t, session.AccessToken(), "cookie login should not expose a token")

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "cookie@example.com", me.Email)

	require.NoError(t, session.Logout(t.Context()))

	_, err = session.Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrSessionExpired)
}

// TestLoginFailureIsGeneric verifies an unknown email and a wrong password
// are indistinguishable to the caller.
func TestLoginFailureIsGeneric(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := newClient(t, baseURL)

	registerAndLogin(t, client, "known@example.com")

	_, unknownErr := client.Login(t.Context(), "nobody@example.com", testPassword)
	_, wrongErr := client.Login(t.Context(), "known@example.com", "not the password")

	require.ErrorIs(t, unknownErr, authsdk.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, authsdk.ErrInvalidCredentials)

	var a, b *authsdk.APIError
	require.True(t, errors.As(unknownErr, &a))
	require.True(t, errors.As(wrongErr, &b))
	require.Equal(t, "invalid email or password", a.Description)
	require.Equal(t, a.Description, b.Description)
	require.Equal(t, http.StatusUnauthorized, a.StatusCode)
}

// TestRegisterDuplicateEmail verifies emails are unique regardless of case.
func TestRegisterDuplicateEmail(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := newClient(t, baseURL)

	registerAndLogin(t, client, "dup@example.com")

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Name:     "Again",
		Email:    "DUP@example.com",
		Password: testPassword,
	})
	require.ErrorIs(t, err, authsdk.ErrEmailTaken)
}

// TestGateRedirectsBrowsers verifies a browser navigation to a guarded
// path without a session is sent to the login page with its destination.
func TestGateRedirectsBrowsers(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := newClient(t, baseURL)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/dashboard/reports?x=1", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")

	resp, err := client.HTTPClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login", loc.Path)
	require.Equal(t, "/dashboard/reports?x=1", loc.Query().Get("callbackUrl"))
}
