package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/service"
)

// LikeHandler serves movie likes.
type LikeHandler struct {
	Catalog *catalog.Catalog
	Likes   *service.LikeService
}

// Summary returns the like count of a movie and, for a signed-in caller,
// whether they like it.
func (h *LikeHandler) Summary(c echo.Context) error {
	m, ok := h.Catalog.Lookup(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	liked := false
	if uid, ok := middleware.UserID(c); ok {
		liked = h.Likes.IsLiked(m.ID, uid)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": m.ID, "count": h.Likes.Count(m.ID), "liked": liked})
}

// Toggle likes or unlikes a movie for the caller.
func (h *LikeHandler) Toggle(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	m, ok := h.Catalog.Lookup(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	liked, err := h.Likes.Toggle(ctx, m.ID, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": m.ID, "count": h.Likes.Count(m.ID), "liked": liked})
}

// MyLikes lists the ids of the movies the caller likes.
func (h *LikeHandler) MyLikes(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_ids": h.Likes.UserLikes(uid)})
}
