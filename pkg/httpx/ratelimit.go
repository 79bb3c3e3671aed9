package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Rate limit profiles. Each can be overridden with
// RATELIMIT_{PROFILE}_REQUESTS, RATELIMIT_{PROFILE}_WINDOW_SEC and
// RATELIMIT_{PROFILE}_BURST.
var (
	// StrictLimit guards credential endpoints (login, register).
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards token renewal and logout.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards authenticated reads such as the identity probe.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards anonymous read-only endpoints (JWKS).
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

type rateLimitEnv struct {
	Requests  int `env:"REQUESTS"`
	WindowSec int `env:"WINDOW_SEC"`
	Burst     int `env:"BURST"`
}

// ParseRateLimitFromEnv overlays RATELIMIT_{prefix}_* variables on def.
// Unparseable input leaves def untouched; non-positive values are ignored.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	var e rateLimitEnv
	if err := env.ParseWithOptions(&e, env.Options{Prefix: "RATELIMIT_" + prefix + "_"}); err != nil {
		return def
	}

	cfg := def
	if e.Requests > 0 {
		cfg.RequestsPerWindow = e.Requests
	}
	if e.WindowSec > 0 {
		cfg.Window = time.Duration(e.WindowSec) * time.Second
	}
	if e.Burst > 0 {
		cfg.Burst = e.Burst
	}
	return cfg
}

// KeyExtractor groups requests into rate limit buckets. An empty key
// bypasses limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserIDKeyExtractor keys on the authenticated subject, if any.
func UserIDKeyExtractor(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// CompositeKeyExtractor joins the non-empty keys of each extractor with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

const maxPeekBody = 64 << 10

// BodyFieldKeyExtractor keys on a field of a JSON or form body, falling back
// to the query string. The body is restored for the next handler. Values are
// case-folded so "Alice@x.com" and "alice@x.com" share a bucket.
func BodyFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		v := peekBodyField(r, field)
		if v == "" {
			v = r.URL.Query().Get(field)
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

func peekBodyField(r *http.Request, field string) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var m map[string]any
		if json.Unmarshal(raw, &m) != nil {
			return ""
		}
		s, _ := m[field].(string)
		return s
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return ""
	}
	return values.Get(field)
}

// RateLimitOption customises RateLimitMiddleware.
type RateLimitOption func(*rateLimitOptions)

type rateLimitOptions struct {
	onLimited func(r *http.Request, key string)
}

// OnRateLimited registers a hook invoked for every rejected request.
func OnRateLimited(fn func(r *http.Request, key string)) RateLimitOption {
	return func(o *rateLimitOptions) { o.onLimited = fn }
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per key and evicts idle buckets.
type limiterStore struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{
		entries:   make(map[string]*limiterEntry),
		rate:      rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		idle:      max(cfg.Window, 5*time.Minute),
		lastSweep: time.Now(),
	}
}

func (s *limiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idle {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) >= s.idle {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimitMiddleware limits requests per key. Rejected requests receive 429
// with Retry-After.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor, opts ...RateLimitOption) Middleware {
	var o rateLimitOptions
	for _, opt := range opts {
		opt(&o)
	}
	limiters := newLimiterStore(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			limiter := limiters.get(key, now)
			if limiter.AllowN(now, 1) {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.ReserveN(now, 1)
			retryAfter := max(int(res.DelayFrom(now).Seconds()), 1)
			res.CancelAt(now)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", retryAfter,
			)
			if o.onLimited != nil {
				o.onLimited(r, key)
			}

			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP creates a rate limiter that limits by IP address only.
func RateLimitByIP(config RateLimitConfig, opts ...RateLimitOption) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor, opts...)
}

// RateLimitByUser limits by authenticated subject, falling back to IP.
func RateLimitByUser(config RateLimitConfig, opts ...RateLimitOption) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor), opts...)
}

// RateLimitByIPAndField limits by IP plus a body field, e.g. login attempts
// per IP and email.
func RateLimitByIPAndField(config RateLimitConfig, field string, opts ...RateLimitOption) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":", IPKeyExtractor, BodyFieldKeyExtractor(field)), opts...)
}
