package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/realtime"
)

// RealtimeHandler upgrades browsers to the change-event websocket.
type RealtimeHandler struct {
	Hub *realtime.Hub
}

// Subscribe streams the change events of ?tables= (default: all tables).
func (h *RealtimeHandler) Subscribe(c echo.Context) error {
	raw := c.QueryParam("tables")
	if raw == "" {
		raw = "bookings,likes,comments"
	}
	tables := realtime.ParseTables(raw)
	if len(tables) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no known tables"})
	}
	if err := h.Hub.Serve(c.Response(), c.Request(), tables); err != nil {
		// the upgrader has already answered the client
		c.Logger().Warnf("websocket upgrade: %v", err)
	}
	return nil
}
