package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/internal/auth/store"
	"github.com/aussiebroadwan/realmauth/pkg/httpx"
	"github.com/aussiebroadwan/realmauth/pkg/jwtx"
	"github.com/aussiebroadwan/realmauth/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/realmauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	limits       httpx.Profiles
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	accounts store.Accounts
	tokens   store.UserTokens

	AccountService *service.AccountService
	Gatherer       prometheus.Gatherer // Optional: /metrics is not served when nil
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	accounts store.Accounts,
	tokens store.UserTokens,
	limits httpx.Profiles,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		limits:       limits,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		accounts:     accounts,
		tokens:       tokens,
		logger:       logger,
	}

	// Bearer tokens are optional everywhere; handlers reject anonymous
	// callers where an account is required.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Authenticate(r.verifier),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerLinks()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Realm Account Service API
//	@version		0.1.0
//	@description	Account registration, login and recovery for an AzerothCore realm.
//	@description
//	@description				Passwords are stored as SRP6 salt/verifier pairs the game auth server can check.
//	@description				Sessions are HS256 JWTs valid for 30 days.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/realmauth
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
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{AccountService: r.AccountService}

	// Anonymous credential endpoints - strict rate limit by IP
	r.Mux.Handle("POST /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.Mux.Handle("POST /v1/accounts/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.Mux.Handle("POST /v1/accounts/recovery",
		httpx.Chain(http.HandlerFunc(h.HandleRecoverPassword),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)

	// Signed-in writes - moderate rate limit by account
	r.Mux.Handle("POST /v1/accounts/me/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.RateLimitByAccount(r.limits.Moderate),
		),
	)
	r.Mux.Handle("POST /v1/accounts/me/email",
		httpx.Chain(http.HandlerFunc(h.HandleChangeEmail),
			httpx.RateLimitByAccount(r.limits.Moderate),
		),
	)
	r.Mux.Handle("POST /v1/accounts/me/confirmation",
		httpx.Chain(http.HandlerFunc(h.HandleResendConfirmation),
			httpx.RateLimitByAccount(r.limits.Moderate),
		),
	)

	r.Mux.Handle("GET /v1/accounts/{id}/username",
		httpx.Chain(http.HandlerFunc(h.HandleUsername),
			httpx.RateLimitByAccount(r.limits.Lenient),
		),
	)
}

func (r *Router) registerLinks() {
	h := &LinksHandler{AccountService: r.AccountService}

	// Links opened from emails. Recovery rotates credentials on every visit,
	// so it gets the strict limit.
	r.Mux.Handle("GET /pass_recover/{email}/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleRecoveryLink),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.Mux.Handle("GET /activation/{id}/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleActivationLink),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.accounts, r.tokens),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	}
}
