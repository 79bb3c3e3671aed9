//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestHealthEndpoints verifies liveness and readiness on a fresh service.
func TestHealthEndpoints(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := newClient(t, baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	ready, err := client.GetReadiness(t.Context())
	assertHealthy(t, ready, err)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
}

// TestJWKSEndpoint verifies the EdDSA public key is published.
func TestJWKSEndpoint(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := newClient(t, baseURL)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "EdDSA", jwks.Keys[0].Alg)
	require.NotEmpty(t, jwks.Keys[0].Kid)
}

// TestJWKSHiddenForHS256 verifies a shared secret deployment publishes
// nothing.
func TestJWKSHiddenForHS256(t *testing.T) {
	baseURL := setupAuthContainer(t, map[string]string{"AUTH_ALGORITHM": "HS256"})
	client := newClient(t, baseURL)

	_, err := client.GetJWKS(t.Context())
	require.ErrorIs(t, err, &authsdk.APIError{Code: authsdk.ErrorCodeNotFound, StatusCode: 404})

	// Tokens still work
	session := registerAndLogin(t, client, "hs256@example.com")
	_, err = session.Me(t.Context())
	require.NoError(t, err)
}
