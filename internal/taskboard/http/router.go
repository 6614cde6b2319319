package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"

	_ "github.com/aussiebroadwan/taskboard/api/taskboard" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Limits are the rate limit profiles the router applies.
type Limits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
	Public   httpx.RateLimitConfig
}

// DefaultLimits returns the package-level httpx profiles.
func DefaultLimits() Limits {
	return Limits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
		Public:   httpx.PublicLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	db           Pinger

	// Cache is pinged by /readyz when set.
	Cache   Pinger
	Cookies CookieConfig
	Limits  Limits
	Dev     bool

	TokenService     *service.TokenService
	SessionService   *service.SessionService
	BootstrapService *service.BootstrapService
	ResetService     *service.ResetService
	TaskService      *service.TaskService
	UserService      *service.UserService
}

func NewRouter(buildVersion string, db Pinger, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		db:           db,
		Limits:       DefaultLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerBootstrap()
	r.registerTasks()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/",
		httpx.Chain(httpSwagger.Handler(),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Taskboard API
//	@version		0.1.0
//	@description	Task management API with JWT sessions.
//	@description
//	@description				Access tokens live for 24 hours and refresh tokens for 7 days. Both are HS256 signed with separate secrets.
//	@description				Each login or refresh rotates the refresh token; the previous one stops working.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/taskboard
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
//	@description				JWT access token. Format: "Bearer {token}". The accessToken cookie is accepted too and takes precedence.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed wraps h with authentication followed by the given middlewares.
func (r *Router) authed(h http.HandlerFunc, middlewares ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{httpx.AuthnMiddleware(r.TokenService, AccessCookieName)}, middlewares...)
	return httpx.Chain(h, chain...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Sessions: r.SessionService,
		Resets:   r.ResetService,
		Cookies:  r.Cookies,
		Dev:      r.Dev,
	}

	// Credential endpoints - strict rate limit by IP
	strict := func(hf http.HandlerFunc) http.Handler {
		return httpx.Chain(hf, httpx.RateLimitByIP(r.Limits.Strict))
	}
	r.Mux.Handle("POST /auth/register", strict(h.HandleRegister))
	r.Mux.Handle("POST /auth/login", strict(h.HandleLogin))
	r.Mux.Handle("POST /auth/refresh", strict(h.HandleRefresh))
	r.Mux.Handle("POST /auth/forgot-password", strict(h.HandleForgotPassword))
	r.Mux.Handle("POST /auth/reset-password", strict(h.HandleResetPassword))

	r.Mux.Handle("POST /auth/logout",
		r.authed(h.HandleLogout, httpx.RateLimitByUser(r.Limits.Moderate)))
	// Old password is checked, so treat as a credential endpoint
	r.Mux.Handle("POST /auth/change-password",
		r.authed(h.HandleChangePassword, httpx.RateLimitByUser(r.Limits.Strict)))
}

func (r *Router) registerBootstrap() {
	if r.BootstrapService == nil {
		return
	}

	// Bootstrap endpoint - strict rate limit (token-gated, single use)
	r.Mux.Handle("POST /auth/bootstrap",
		httpx.Chain(&BootstrapHandler{Bootstrap: r.BootstrapService, Dev: r.Dev},
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)
}

func (r *Router) registerTasks() {
	h := &TaskHandler{Tasks: r.TaskService, Dev: r.Dev}

	read := httpx.RateLimitByUser(r.Limits.Lenient)
	write := httpx.RateLimitByUser(r.Limits.Moderate)

	r.Mux.Handle("GET /tasks", r.authed(h.HandleList, read))
	r.Mux.Handle("GET /tasks/stats", r.authed(h.HandleStats, read))
	r.Mux.Handle("POST /tasks", r.authed(h.HandleCreate, write))
	r.Mux.Handle("GET /tasks/{id}", r.authed(h.HandleGet, read))
	r.Mux.Handle("PUT /tasks/{id}", r.authed(h.HandleUpdate, write))
	r.Mux.Handle("DELETE /tasks/{id}", r.authed(h.HandleDelete, write))
}

func (r *Router) registerUsers() {
	h := &UserHandler{Users: r.UserService, Dev: r.Dev}

	admin := httpx.RequireRole(string(domain.RoleAdmin))
	read := httpx.RateLimitByUser(r.Limits.Lenient)
	write := httpx.RateLimitByUser(r.Limits.Moderate)

	r.Mux.Handle("GET /users", r.authed(h.HandleList, admin, read))
	r.Mux.Handle("GET /users/profile", r.authed(h.HandleProfile, read))
	r.Mux.Handle("GET /users/{id}",
		r.authed(h.HandleGet, httpx.RequireOwnership("id", string(domain.RoleAdmin)), read))
	r.Mux.Handle("PUT /users/{id}/role", r.authed(h.HandleUpdateRole, admin, write))
	r.Mux.Handle("DELETE /users/{id}", r.authed(h.HandleDelete, admin, write))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.db, r.Cache),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
}
