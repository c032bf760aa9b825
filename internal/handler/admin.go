package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/scheduler"
)

// AdminHandler exposes maintenance actions.
type AdminHandler struct {
	Targets []scheduler.Resyncer
	Cache   config.CacheConfig
	Redis   *redis.Client // nil disables the cache flush
}

// Resync reloads every cache from the store and drops cached responses.
func (h *AdminHandler) Resync(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()
	if err := scheduler.Resync(h.Targets...)(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resync failed"})
	}
	flushed := 0
	if h.Redis != nil {
		n, err := middleware.FlushCache(ctx, h.Cache, h.Redis)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cache flush failed"})
		}
		flushed = n
	}
	return c.JSON(http.StatusOK, echo.Map{"reloaded": len(h.Targets), "cache_flushed": flushed})
}
