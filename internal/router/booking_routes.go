package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
)

// RegisterBookings registers booking and ticket endpoints.  Creating a
// booking runs behind OptionalAuth: an anonymous purchase is answered with
// 401 "sign in required" by the handler.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, o Options) {
	backend := middleware.RequireBackend(o.BackendErr)
	limit := middleware.NewTokenBucket(o.RateLimit.ForWrites(), o.Redis)

	e.POST("/v1/movies/:id/schedules/:scheduleId/bookings", h.Create,
		backend, middleware.OptionalAuth(o.JWTSecret), limit)

	g := e.Group("/v1", backend, middleware.JWTAuth(o.JWTSecret))
	g.GET("/my-bookings", h.MyBookings)
	g.GET("/bookings/:id", h.Get)
	g.DELETE("/bookings/:id", h.Cancel, limit)
	g.GET("/bookings/:id/qr", h.QR)
	g.GET("/bookings/:id/ticket.pdf", h.TicketPDF)
}

// RegisterSocial registers likes and comments.  Reads are public.
func RegisterSocial(e *echo.Echo, l *handler.LikeHandler, cm *handler.CommentHandler, o Options) {
	backend := middleware.RequireBackend(o.BackendErr)
	jwt := middleware.JWTAuth(o.JWTSecret)
	limit := middleware.NewTokenBucket(o.RateLimit.ForWrites(), o.Redis)

	e.GET("/v1/movies/:id/likes", l.Summary, middleware.OptionalAuth(o.JWTSecret))
	e.GET("/v1/movies/:id/comments", cm.List)

	g := e.Group("/v1", backend, jwt)
	g.POST("/movies/:id/like", l.Toggle, limit)
	g.GET("/my-likes", l.MyLikes)
	g.POST("/movies/:id/comments", cm.Add, limit)
	g.DELETE("/comments/:id", cm.Delete, limit)
}

// RegisterAdmin registers maintenance and realtime endpoints.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, rt *handler.RealtimeHandler, o Options) {
	e.GET("/v1/realtime", rt.Subscribe)

	g := e.Group("/v1/admin",
		middleware.RequireBackend(o.BackendErr),
		middleware.JWTAuth(o.JWTSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.POST("/resync", a.Resync)
}
