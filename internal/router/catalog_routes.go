package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
)

// RegisterCatalog registers the public browse endpoints.  They are served
// from the static catalog and the synced caches, so they stay up without a
// database.  The movie list and date options are the same for every caller
// and go through the response cache; schedule and seat routes carry live
// availability and are never cached.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, o Options) {
	cache := middleware.NewRedisCache(o.Cache, o.Redis)
	limit := middleware.NewTokenBucket(o.RateLimit, o.Redis)

	g := e.Group("/v1", limit)
	g.GET("/movies", h.ListMovies, cache)
	g.GET("/movies/:id/dates", h.ListDates, cache)
	// per-user like state, never cached
	g.GET("/movies/:id", h.GetMovie, middleware.OptionalAuth(o.JWTSecret))
	g.GET("/movies/:id/schedules", h.ListSchedules)
	g.GET("/movies/:id/schedules/:scheduleId/seats", h.SeatMap)
}
