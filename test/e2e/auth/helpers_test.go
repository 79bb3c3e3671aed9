//go:build e2e

package auth_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, account setup, and assertions.
 */

const (
	testImageName = "gatehouse-auth-test:latest"

	testPassword = "correct horse battery staple"
)

// TestMain builds the Docker image once before all tests and removes it
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// relaxedLimits lifts the production rate limits; tests make many rapid
// requests from one address.
var relaxedLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_BURST":      "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
	"RATELIMIT_MODERATE_BURST":    "1000",
}

// setupAuthContainer starts the auth service with relaxed rate limits and
// returns its base URL. overrides are applied last.
func setupAuthContainer(t *testing.T, overrides map[string]string) string {
	t.Helper()

	env := map[string]string{
		"AUTH_DATABASE_FILE":    "/data/auth.db",
		"AUTH_PEPPER_FILE":      "/data/pepper",
		"AUTH_SIGNING_KEY_FILE": "/data/signing.pem",
		"AUTH_SECRET_FILE":      "/data/secret",
		"AUTH_COOKIE_KEY_FILE":  "/data/cookie.key",
		"AUTH_ISSUER":           "gatehouse-e2e",
		"AUTH_COOKIE_SECURE":    "false", // plain http inside the test network
		"ENV":                   "test",
		"LOG_LEVEL":             "info",
		"LOG_FORMAT":            "json",
	}
	maps.Copy(env, relaxedLimits)
	maps.Copy(env, overrides)

	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limits, for tests that exercise limiting itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) string {
	t.Helper()

	return startContainer(t, map[string]string{
		"AUTH_DATABASE_FILE": "/data/auth.db",
		"AUTH_PEPPER_FILE":   "/data/pepper",
		"AUTH_COOKIE_SECURE": "false",
		"ENV":                "test",
	})
}

func startContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// newClient returns an SDK client with its own cookie jar.
func newClient(t *testing.T, baseURL string) *authsdk.SDKClient {
	t.Helper()
	client, err := authsdk.NewSDKClient(baseURL)
	require.NoError(t, err)
	return client
}

// registerAndLogin creates an account and signs it in.
func registerAndLogin(t *testing.T, client *authsdk.SDKClient, email string) *authsdk.Session {
	t.Helper()

	id, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Name:     "E2E User",
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err, "Register should succeed")
	require.Equal(t, "user", id.Role)

	session, err := client.Login(t.Context(), email, testPassword)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session)
	return session
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
