//go:build e2e

package auth_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies that login is rate limited. The strict
// profile allows 5 requests per minute per address.
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL := setupAuthContainerWithDefaultRateLimits(t)
	client := newClient(t, baseURL)

	var lastErr error
	for i := range 6 {
		_, err := client.Login(t.Context(), "nobody@example.com", "wrong password")
		require.Error(t, err)
		if i < 5 {
			require.ErrorIs(t, err, authsdk.ErrInvalidCredentials, "request %d should not be rate limited yet", i+1)
			continue
		}
		lastErr = err
	}

	var apiErr *authsdk.APIError
	require.True(t, errors.As(lastErr, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, "rate_limit_exceeded", apiErr.Code)
}
