package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/internal/auth/service"
	"github.com/teamlapse/socialauth/internal/auth/store"
	"github.com/teamlapse/socialauth/pkg/authtoken"
	"github.com/teamlapse/socialauth/pkg/httpx"
	"github.com/teamlapse/socialauth/pkg/slogx"

	_ "github.com/teamlapse/socialauth/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	tokens       *authtoken.Provider
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	refreshTTL   time.Duration

	store store.Store

	Providers    *oauth2.Registry
	AuthRequests *oauth2.AuthRequestRepository
	UserService  *service.OAuth2UserService
	LoginService *service.LoginService
}

func NewRouter(
	tokens *authtoken.Provider,
	buildVersion string,
	refreshTTL time.Duration,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		tokens:       tokens,
		buildVersion: buildVersion,
		refreshTTL:   refreshTTL,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Every request gets a contextual logger and, when it presents a valid
	// bearer token, a principal. Invalid tokens fall through as anonymous.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.BearerMiddleware(tokens),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Social Auth API
//	@version		0.1.0
//	@description	Social login service issuing its own JWT bearer tokens after
//	@description	authenticating users against Google, Facebook, Naver or Kakao.
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
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	authorizationHandler := &AuthorizationHandler{
		Providers:    r.Providers,
		AuthRequests: r.AuthRequests,
	}

	// GET /oauth2/authorization/{provider} - begins a login, moderate limit by IP
	r.Mux.Handle("GET /oauth2/authorization/{provider}",
		httpx.Chain(authorizationHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /login/oauth2/code/{provider} - provider callback, moderate limit by IP
	callbackHandler := &CallbackHandler{
		Providers:    r.Providers,
		AuthRequests: r.AuthRequests,
		UserService:  r.UserService,
		LoginService: r.LoginService,
		RefreshTTL:   r.refreshTTL,
	}
	r.Mux.Handle("GET /login/oauth2/code/{provider}",
		httpx.Chain(callbackHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAuth() {
	// POST /api/v1/auth/refresh - strict rate limit by IP (token minting)
	refreshHandler := &RefreshHandler{
		LoginService: r.LoginService,
		RefreshTTL:   r.refreshTTL,
	}
	r.Mux.Handle("POST /api/v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &MeHandler{Store: r.store}

	// Authenticated endpoint - lenient rate limit by principal
	secured := httpx.Chain(h,
		httpx.RequirePrincipal(),
		httpx.RateLimitByPrincipal(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /api/v1/users/me", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
