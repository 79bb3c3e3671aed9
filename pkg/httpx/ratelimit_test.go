package httpx_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	t.Parallel()

	req := fromIP("192.168.1.1")
	require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "203.0.113.2")
	require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
	require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req), "X-Forwarded-For wins")
}

func TestUserIDKeyExtractor(t *testing.T) {
	t.Parallel()

	req := fromIP("10.0.0.1")
	require.Empty(t, httpx.UserIDKeyExtractor(req))

	var c jwtx.Claims
	c.Subject = "user-1"
	req = req.WithContext(httpx.WithClaims(req.Context(), c))
	require.Equal(t, "user-1", httpx.UserIDKeyExtractor(req))
}

func TestBodyFieldKeyExtractor(t *testing.T) {
	t.Parallel()
	extract := httpx.BodyFieldKeyExtractor("email")

	t.Run("json body is folded and restored", func(t *testing.T) {
		body := `{"email":" Alice@Example.com ","password":"x"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		require.Equal(t, "alice@example.com", extract(req))

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(rest))
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"email": {"bob@example.com"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		require.Equal(t, "bob@example.com", extract(req))
	})

	t.Run("query string", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?email=carol@example.com", nil)
		require.Equal(t, "carol@example.com", extract(req))
	})

	t.Run("missing or malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
		req.Header.Set("Content-Type", "application/json")
		require.Empty(t, extract(req))
		require.Empty(t, extract(httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	t.Parallel()

	extractor := httpx.CompositeKeyExtractor(":", httpx.IPKeyExtractor, httpx.BodyFieldKeyExtractor("email"))

	req := httptest.NewRequest(http.MethodGet, "/?email=alice@example.com", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	require.Equal(t, "192.168.1.1:alice@example.com", extractor(req))

	require.Equal(t, "192.168.1.1", extractor(fromIP("192.168.1.1")), "empty parts are skipped")
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("allows burst then blocks", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		h := httpx.RateLimitMiddleware(cfg, httpx.IPKeyExtractor)(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, serve(h, fromIP("192.168.1.1")).Code, "request %d", i+1)
		}
		rec := serve(h, fromIP("192.168.1.1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("keys are tracked separately", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitByIP(cfg)(okHandler)

		require.Equal(t, http.StatusOK, serve(h, fromIP("192.168.1.1")).Code)
		require.Equal(t, http.StatusTooManyRequests, serve(h, fromIP("192.168.1.1")).Code)
		require.Equal(t, http.StatusOK, serve(h, fromIP("192.168.1.2")).Code)
	})

	t.Run("empty key bypasses limiting", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, fromIP("192.168.1.1")).Code)
		}
	})

	t.Run("headers body and hook", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		var hooked string
		h := httpx.RateLimitByIP(cfg, httpx.OnRateLimited(func(_ *http.Request, key string) {
			hooked = key
		}))(okHandler)

		serve(h, fromIP("192.168.1.1"))
		rec := serve(h, fromIP("192.168.1.1"))

		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
		require.Equal(t, "192.168.1.1", hooked)
	})
}

func TestRateLimitByIPAndField(t *testing.T) {
	t.Parallel()

	cfg := httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := httpx.RateLimitByIPAndField(cfg, "email")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		require.NotEmpty(t, b, "body must reach the handler")
		w.WriteHeader(http.StatusOK)
	}))

	login := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.168.1.1:12345"
		return serve(h, req).Code
	}

	require.Equal(t, http.StatusOK, login("alice@example.com"))
	require.Equal(t, http.StatusOK, login("ALICE@example.com"))
	require.Equal(t, http.StatusTooManyRequests, login("alice@example.com"))
	require.Equal(t, http.StatusOK, login("bob@example.com"))
}

func TestRateLimitProfiles(t *testing.T) {
	t.Parallel()

	for name, cfg := range map[string]httpx.RateLimitConfig{
		"strict":   httpx.StrictLimit,
		"moderate": httpx.ModerateLimit,
		"lenient":  httpx.LenientLimit,
		"public":   httpx.PublicLimit,
	} {
		t.Run(name, func(t *testing.T) {
			require.Positive(t, cfg.RequestsPerWindow)
			require.Positive(t, cfg.Window)
			require.Positive(t, cfg.Burst)
		})
	}

	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
	require.Less(t, httpx.ModerateLimit.RequestsPerWindow, httpx.LenientLimit.RequestsPerWindow)
	require.Less(t, httpx.LenientLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	tests := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{"defaults", nil, def},
		{"requests", map[string]string{"REQUESTS": "50"}, httpx.RateLimitConfig{RequestsPerWindow: 50, Window: time.Minute, Burst: 10}},
		{"window", map[string]string{"WINDOW_SEC": "120"}, httpx.RateLimitConfig{RequestsPerWindow: 10, Window: 2 * time.Minute, Burst: 10}},
		{"all", map[string]string{"REQUESTS": "200", "WINDOW_SEC": "30", "BURST": "250"}, httpx.RateLimitConfig{RequestsPerWindow: 200, Window: 30 * time.Second, Burst: 250}},
		{"invalid", map[string]string{"REQUESTS": "invalid", "BURST": "not-a-number"}, def},
		{"non-positive", map[string]string{"REQUESTS": "0", "WINDOW_SEC": "-10", "BURST": "0"}, def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv("RATELIMIT_TEST_"+k, v)
			}
			require.Equal(t, tt.want, httpx.ParseRateLimitFromEnv("TEST", def))
		})
	}
}

func BenchmarkRateLimitManyIPs(b *testing.B) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1000000, Window: time.Minute, Burst: 1000}
	h := httpx.RateLimitByIP(cfg)(okHandler)

	for i := 0; b.Loop(); i++ {
		serve(h, fromIP(fmt.Sprintf("192.168.%d.%d", i%255, (i/255)%255)))
	}
}
