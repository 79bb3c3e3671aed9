package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/federation"
	"github.com/aussiebroadwan/gatehouse/internal/auth/gate"
	"github.com/aussiebroadwan/gatehouse/internal/auth/metrics"
	"github.com/aussiebroadwan/gatehouse/internal/auth/service"
	"github.com/aussiebroadwan/gatehouse/internal/auth/session"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/authsdk"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"

	_ "github.com/aussiebroadwan/gatehouse/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Strategy    session.Strategy
	Gate        *gate.Gate
	Metrics     *metrics.Metrics
	Credentials *service.CredentialService
	Users       *service.UserService
	Federation  *service.FederationService
	Providers   *federation.Registry // Optional: no federated routes without providers

	// Upstream, when set, receives every request the core does not serve.
	Upstream *url.URL

	PostLoginPath string
	LoginPath     string
	SecureCookies bool
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

// ApplyRoutes registers every route and builds the middleware chain:
// request logging, then metrics, then the policy gate. It must run before
// the router serves.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerFederation()
	r.registerUsers()
	r.registerSystem()
	r.registerFallback()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.Metrics.Middleware(r.routeLabel),
	}
	if r.Gate != nil {
		r.middlewares = append(r.middlewares, r.Gate.Middleware)
	}
	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatehouse Authentication Service API
//	@version		0.1.0
//	@description	Registration, password and federated sign-in, session cookies or bearer tokens with refresh, and a role gate in front of an upstream application.
//	@description
//	@description				Access tokens are signed with EdDSA (published at the JWKS endpoint) or HS256.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/gatehouse
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// routeLabel reports the mux pattern that will serve req, keeping metric
// cardinality bounded.
func (r *Router) routeLabel(req *http.Request) string {
	_, pattern := r.Mux.Handler(req)
	return pattern
}

func (r *Router) registerAuth() {
	// POST /register - strict rate limit by IP (account creation)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{Credentials: r.Credentials, Metrics: r.Metrics},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP, and by IP + email to slow
	// guessing against one account from a shared address
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{Credentials: r.Credentials, Strategy: r.Strategy, Metrics: r.Metrics},
			httpx.RateLimitByIP(httpx.StrictLimit),
			httpx.RateLimitByIPAndField(httpx.StrictLimit, "email"),
		),
	)

	// POST /refresh - only strategies with a refresh credential
	if renewer, ok := r.Strategy.(session.Renewer); ok {
		r.Mux.Handle("POST /v1/auth/refresh",
			httpx.Chain(&RefreshHandler{Renewer: renewer, Metrics: r.Metrics},
				httpx.RateLimitByIP(httpx.ModerateLimit),
			),
		)
	}

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{Strategy: r.Strategy},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerFederation() {
	if len(r.Providers.Names()) == 0 {
		return
	}
	h := &FederatedHandler{
		Providers:     r.Providers,
		Federation:    r.Federation,
		Strategy:      r.Strategy,
		Metrics:       r.Metrics,
		PostLoginPath: r.PostLoginPath,
		LoginPath:     r.LoginPath,
		SecureCookies: r.SecureCookies,
	}

	// GET /federated/{provider} - lenient, it only redirects
	r.Mux.Handle("GET /v1/auth/federated/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleStart),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// GET /federated/{provider}/callback - strict, it signs the user in
	r.Mux.Handle("GET /v1/auth/federated/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &MeHandler{Users: r.Users}

	// Authenticated endpoint - lenient rate limit by user
	r.Mux.Handle("GET /v1/me",
		httpx.Chain(h,
			r.Gate.Require(domain.RoleUser),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// GET /jwks.json - public endpoint with high limit, EdDSA keys only
	if r.keys != nil && r.keys.Publishes() {
		r.Mux.Handle("GET /.well-known/jwks.json",
			httpx.Chain(JWKSHandler(r.keys),
				httpx.RateLimitByIP(httpx.PublicLimit),
			),
		)
	}

	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}

func (r *Router) registerFallback() {
	if r.Upstream != nil {
		r.Mux.Handle("/", NewIdentityProxy(r.Upstream))
		return
	}
	r.Mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		(&authsdk.APIError{
			StatusCode:  http.StatusNotFound,
			Code:        authsdk.ErrorCodeNotFound,
			Description: "no such resource",
		}).WriteError(w)
	}))
}
