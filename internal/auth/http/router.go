package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/pkg/httpx"
	"github.com/plumeworks/plume/pkg/jwtx"
	"github.com/plumeworks/plume/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	AuthService      *service.AuthService
	UserService      *service.UserService
	RateLimitService *service.RateLimitService
	TestingService   *service.TestingService // nil unless the testing surface is enabled

	RefreshTTL      time.Duration
	RateLimitWindow time.Duration

	// AdminLogin/AdminPassword gate the /users surface.
	AdminLogin    string
	AdminPassword string
}

func NewRouter(verifier jwtx.Verifier, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	authHandler := &AuthHandler{
		AuthService: r.AuthService,
		RefreshTTL:  r.RefreshTTL,
	}
	regHandler := &RegistrationHandler{AuthService: r.AuthService}

	limited := httpx.RateLimitMiddleware(r.RateLimitService, r.RateLimitWindow)

	// The credential and signup endpoints are rate limited per client
	// address; the limiter runs before body parsing so over-limit requests
	// are rejected however malformed they are.
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogin), limited))
	r.Mux.Handle("POST /auth/registration",
		httpx.Chain(http.HandlerFunc(regHandler.HandleRegister), limited))
	r.Mux.Handle("POST /auth/registration-confirmation",
		httpx.Chain(http.HandlerFunc(regHandler.HandleConfirm), limited))
	r.Mux.Handle("POST /auth/registration-email-resending",
		httpx.Chain(http.HandlerFunc(regHandler.HandleResend), limited))

	// Refresh and logout authenticate by the refresh cookie itself: a
	// single-use token is its own throttle.
	r.Mux.Handle("POST /auth/refresh-token", http.HandlerFunc(authHandler.HandleRefresh))
	r.Mux.Handle("POST /auth/logout", http.HandlerFunc(authHandler.HandleLogout))

	// Limiter outermost: unauthenticated probes are recorded and throttled
	// before the bearer check runs.
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(authHandler.HandleMe),
			limited,
			httpx.AuthnMiddleware(r.verifier),
		))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	admin := httpx.BasicAuthMiddleware(r.AdminLogin, r.AdminPassword)

	r.Mux.Handle("POST /users", httpx.Chain(http.HandlerFunc(h.HandleCreate), admin))
	r.Mux.Handle("GET /users", httpx.Chain(http.HandlerFunc(h.HandleList), admin))
	r.Mux.Handle("DELETE /users/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), admin))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))

	if r.TestingService != nil {
		r.Mux.Handle("DELETE /testing/all-data",
			&TestingHandler{TestingService: r.TestingService})
	}
}
