package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // the Echo web framework handles routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // exposes the process metrics registry
	"github.com/redis/go-redis/v9"                            // rate limiting state lives in Redis

	"github.com/iliyamo/sakila-admin/internal/cache"
	"github.com/iliyamo/sakila-admin/internal/config"
	"github.com/iliyamo/sakila-admin/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/sakila-admin/internal/middleware" // JWT authentication, roles, caching and rate limiting
	"github.com/iliyamo/sakila-admin/internal/model"
)

// RegisterRoutes registers routes that do not require authentication: the
// marketing page, the admin entry redirect and the probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/", handler.Landing)
	e.GET("/admin", handler.AdminRedirect)
	// Liveness never touches the database; readiness pings it.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers all authentication-related routes.  Token issue
// and exchange live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body or a bearer token.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleViewer))
	auth.GET("/me", a.Me)
}

// Admin bundles the handlers and shared infrastructure behind /v1/admin.
type Admin struct {
	JWTSecret string
	Auth      *handler.AuthHandler
	Views     *handler.ViewsHandler
	Schema    *handler.SchemaHandler
	Stats     *handler.StatsHandler
	Events    *handler.EventsHandler
	Shell     *handler.ShellHandler

	Cache      config.CacheConfig
	CacheStore cache.Store // nil disables the response cache
	RateLimit  config.RateLimitConfig
	Redis      *redis.Client // nil disables rate limiting
}

// RegisterAdmin registers the dashboard API.  Every route requires a valid
// access token; mutating operations additionally require the ADMIN role.
// Responses of read routes go through the response cache, except the
// websocket stream which must never be buffered.
func RegisterAdmin(e *echo.Echo, a Admin) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(a.JWTSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleViewer))
	g.Use(middleware.RateLimit(a.RateLimit, a.Redis))

	// The event stream is a websocket and is never cached.
	g.GET("/events", a.Events.Stream)

	cached := middleware.ResponseCache(a.Cache, a.CacheStore)
	g.GET("/shell", a.Shell.Shell, cached)
	g.GET("/views", a.Views.Catalog, cached)
	g.GET("/views/:view", a.Views.List, cached)
	g.GET("/schema/tables", a.Schema.Tables, cached)
	g.GET("/schema/tables/:table", a.Schema.Table, cached)
	g.GET("/dashboard", a.Stats.DashboardCards, cached)
	g.GET("/analytics", a.Stats.AnalyticsReport, cached)
	g.GET("/analytics/capabilities", a.Stats.Capabilities, cached)

	g.POST("/navigate", a.Events.Navigate)

	adminOnly := middleware.RequireRole(model.RoleAdmin)
	// Row actions are declared but not wired to storage yet; both answer 501.
	g.PUT("/views/:view/:id", a.Views.Edit, adminOnly)
	g.DELETE("/views/:view/:id", a.Views.Delete, adminOnly)
	g.DELETE("/schema/cache", a.Schema.Invalidate, adminOnly)
	g.DELETE("/schema/cache/:table", a.Schema.Invalidate, adminOnly)
	g.POST("/analytics/renegotiate", a.Stats.Renegotiate, adminOnly)
	g.POST("/users", a.Auth.CreateAdmin, adminOnly)
}
