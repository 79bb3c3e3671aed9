package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/gate"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer    string `env:"AUTH_ISSUER" envDefault:"gatehouse"`
	Algorithm string `env:"AUTH_ALGORITHM" envDefault:"EdDSA"` // EdDSA or HS256

	// HS256 secret, inline or from a file. Inline wins.
	Secret     string `env:"AUTH_SECRET"`
	SecretFile string `env:"AUTH_SECRET_FILE" envDefault:"secret"`

	SigningKeyFile string `env:"AUTH_SIGNING_KEY_FILE" envDefault:"signing.pem"` // Ed25519 PKCS8, generated if missing
	CookieKeyFile  string `env:"AUTH_COOKIE_KEY_FILE" envDefault:"cookie.key"`
	PepperFile     string `env:"AUTH_PEPPER_FILE" envDefault:"pepper"`

	SessionStrategy   string        `env:"AUTH_SESSION_STRATEGY" envDefault:"bearer"` // cookie or bearer
	AccessTTL         time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL        time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`
	SessionTTL        time.Duration `env:"AUTH_SESSION_TTL" envDefault:"168h"`
	RefreshRotation   bool          `env:"AUTH_REFRESH_ROTATION" envDefault:"true"`
	RefreshReuseGrace time.Duration `env:"AUTH_REFRESH_REUSE_GRACE" envDefault:"10s"`

	CookieSecure bool   `env:"AUTH_COOKIE_SECURE" envDefault:"true"`
	CookieDomain string `env:"AUTH_COOKIE_DOMAIN"`

	LoginPath     string `env:"AUTH_LOGIN_PATH" envDefault:"/login"`
	ForbiddenPath string `env:"AUTH_FORBIDDEN_PATH" envDefault:"/"`
	PostLoginPath string `env:"AUTH_POST_LOGIN_PATH" envDefault:"/dashboard"`
	Routes        string `env:"AUTH_ROUTES" envDefault:"/dashboard=user,/admin=admin,/v1/me=user"`

	DatabaseDriver string `env:"AUTH_DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseFile   string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	DatabaseURL    string `env:"AUTH_DATABASE_URL"` // Required for postgres
	StoreRetries   uint   `env:"AUTH_STORE_RETRIES" envDefault:"3"`

	UpstreamURL string `env:"AUTH_UPSTREAM_URL"` // Optional: application to proxy gated requests to

	GoogleClientID     string `env:"AUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"AUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"AUTH_GOOGLE_REDIRECT_URL"`

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.SessionStrategy {
	case session.StrategyCookie, session.StrategyBearer:
	default:
		errs = append(errs, fmt.Errorf("AUTH_SESSION_STRATEGY: unknown strategy %q (cookie, bearer)", c.SessionStrategy))
	}

	switch c.Algorithm {
	case jwtx.AlgorithmEdDSA:
	case jwtx.AlgorithmHS256:
		if c.Secret != "" && len(c.Secret) < jwtx.MinHMACSecretSize {
			errs = append(errs, fmt.Errorf("AUTH_SECRET: must be at least %d bytes", jwtx.MinHMACSecretSize))
		}
		if c.Secret == "" && c.SecretFile == "" {
			errs = append(errs, errors.New("AUTH_SECRET or AUTH_SECRET_FILE is required for HS256"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHM: unsupported algorithm %q (EdDSA, HS256)", c.Algorithm))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_DATABASE_DRIVER: unknown driver %q (sqlite, postgres)", c.DatabaseDriver))
	}

	if _, err := gate.ParsePolicy(c.Routes); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_ROUTES: %w", err))
	}

	for name, d := range map[string]time.Duration{
		"AUTH_ACCESS_TTL":  c.AccessTTL,
		"AUTH_REFRESH_TTL": c.RefreshTTL,
		"AUTH_SESSION_TTL": c.SessionTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive", name))
		}
	}
	if c.AccessTTL >= c.RefreshTTL {
		errs = append(errs, errors.New("AUTH_ACCESS_TTL must be shorter than AUTH_REFRESH_TTL"))
	}

	if c.UpstreamURL != "" {
		if u, err := url.Parse(c.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("AUTH_UPSTREAM_URL: %q is not an absolute URL", c.UpstreamURL))
		}
	}

	google := []string{c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL}
	set := 0
	for _, v := range google {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(google) {
		errs = append(errs, errors.New("AUTH_GOOGLE_CLIENT_ID, AUTH_GOOGLE_CLIENT_SECRET and AUTH_GOOGLE_REDIRECT_URL must be set together"))
	}

	return errors.Join(errs...)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}
