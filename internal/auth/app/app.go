package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/federation"
	"github.com/aussiebroadwan/gatehouse/internal/auth/gate"
	httpapi "github.com/aussiebroadwan/gatehouse/internal/auth/http"
	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	metrics    *metrics.Metrics

	// Services
	tokenService        *service.TokenService
	credentialService   *service.CredentialService
	userService         *service.UserService
	federationService   *service.FederationService
	housekeepingService *service.HousekeepingService

	strategy  session.Strategy
	gate      *gate.Gate
	providers *federation.Registry

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	db, err := OpenStore(app.cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)

	app.keyManager, err = InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}

	app.initServices()
	if err := app.initSession(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return app, nil
}

// OpenStore opens the configured driver, applies migrations and wraps the
// store with bounded retries of transient failures.
func OpenStore(cfg Config) (store.Store, error) {
	var db store.Store
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		pg, err := postgres.NewStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db = pg
	default:
		lite, err := sqlite.NewStore(sqlite.FileDSN(cfg.DatabaseFile))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db = lite
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	policy := store.DefaultRetryPolicy
	policy.MaxTries = cfg.StoreRetries
	return store.WithRetry(db, policy), nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"strategy", app.strategy.Name(),
		"providers", app.providers.Names(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the wired router, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Store:      app.db,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
		SessionTTL: app.cfg.SessionTTL,
		Rotate:     app.cfg.RefreshRotation,
		ReuseGrace: app.cfg.RefreshReuseGrace,
	}
	app.credentialService = &service.CredentialService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}
	app.federationService = &service.FederationService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	var providers []federation.Provider
	if app.cfg.GoogleEnabled() {
		providers = append(providers, federation.NewOIDC(federation.Google(
			app.cfg.GoogleClientID,
			app.cfg.GoogleClientSecret,
			app.cfg.GoogleRedirectURL,
		)))
	}
	app.providers = federation.NewRegistry(providers...)
}

// initSession picks the session strategy and builds the gate around it.
func (app *Application) initSession() error {
	cookies := session.CookieOptions{Secure: app.cfg.CookieSecure, Domain: app.cfg.CookieDomain}

	switch app.cfg.SessionStrategy {
	case session.StrategyCookie:
		sealer, err := InitCookieSealer(app.cfg)
		if err != nil {
			return err
		}
		app.strategy = &session.CookieStrategy{Tokens: app.tokenService, Sealer: sealer, Cookies: cookies}
	default:
		app.strategy = &session.BearerStrategy{Tokens: app.tokenService, Cookies: cookies}
	}

	policy, err := gate.ParsePolicy(app.cfg.Routes)
	if err != nil {
		return fmt.Errorf("invalid route policy: %w", err)
	}
	app.gate = &gate.Gate{
		Strategy:      app.strategy,
		Policy:        policy,
		Metrics:       app.metrics,
		LoginPath:     app.cfg.LoginPath,
		ForbiddenPath: app.cfg.ForbiddenPath,
	}

	for _, rule := range policy.Rules() {
		app.logger.Debug("route guarded", "prefix", rule.Prefix, "role", rule.Role.String())
	}
	if !app.cfg.CookieSecure {
		app.logger.Warn("cookies are sent without the Secure attribute; do not use outside local development")
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Strategy = app.strategy
	router.Gate = app.gate
	router.Metrics = app.metrics
	router.Credentials = app.credentialService
	router.Users = app.userService
	router.Federation = app.federationService
	router.Providers = app.providers
	router.PostLoginPath = app.cfg.PostLoginPath
	router.LoginPath = app.cfg.LoginPath
	router.SecureCookies = app.cfg.CookieSecure

	if app.cfg.UpstreamURL != "" {
		upstream, err := url.Parse(app.cfg.UpstreamURL)
		if err != nil {
			return fmt.Errorf("invalid upstream url: %w", err)
		}
		router.Upstream = upstream
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
