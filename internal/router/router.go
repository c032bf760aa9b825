package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"    // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"   // shared client of the cache and rate limiter

	"github.com/iliyamo/cinema-ticket-booking/internal/config"     // cache and rate limit settings
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware" // JWT authentication, role and backend checks
)

// Options carries the settings shared by the route groups.
type Options struct {
	JWTSecret  string
	BackendErr string // non-empty disables auth and writes with a 503
	Cache      config.CacheConfig
	RateLimit  config.RateLimitConfig
	Redis      *redis.Client // nil disables the cache and rate limit
}

// RegisterRoutes registers the unauthenticated health endpoints.
func RegisterRoutes(e *echo.Echo) {
	// load balancers and monitors probe /healthz
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.APIHealth)
	e.GET("/api/movies", handler.APIMovies)
}

// RegisterAuth registers all authentication-related routes.  Token
// operations live under /v1/auth; /v1/me requires a valid access token.
// oauth may be nil when no provider is configured.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, oauth *handler.OAuthHandler, o Options) {
	backend := middleware.RequireBackend(o.BackendErr)
	limit := middleware.NewTokenBucket(o.RateLimit.ForWrites(), o.Redis)

	g := e.Group("/v1/auth", backend)
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	g.GET("/session", a.Session, middleware.OptionalAuth(o.JWTSecret))
	if oauth != nil {
		g.GET("/oauth/google", oauth.Start)
		g.GET("/oauth/google/callback", oauth.Callback)
	}

	auth := e.Group("/v1", backend, middleware.JWTAuth(o.JWTSecret))
	auth.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))
	auth.GET("/me", a.Me)
	e.POST("/v1/logout", a.Logout, backend)
}
