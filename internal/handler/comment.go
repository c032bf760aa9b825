package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/service"
)

// CommentHandler serves movie comments.  Users resolves the author name
// shown next to a comment.
type CommentHandler struct {
	Catalog  *catalog.Catalog
	Comments *service.CommentService
	Users    repository.UserStore
}

type addCommentReq struct {
	Content string `json:"content" validate:"required,max=500"`
}

const maxCommentLimit = 50

// List returns the latest comments of a movie (?limit=, default 5).
func (h *CommentHandler) List(c echo.Context) error {
	m, ok := h.Catalog.Lookup(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit > maxCommentLimit {
		limit = maxCommentLimit
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": h.Comments.MovieComments(m.ID, limit),
		"total": h.Comments.Count(m.ID),
	})
}

// Add posts a comment as the caller.
func (h *CommentHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	m, ok := h.Catalog.Lookup(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	var req addCommentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	author, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return writeError(c, err)
	}
	cm, err := h.Comments.Add(ctx, m.ID, author, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrInvalidComment) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cm)
}

// Delete removes a comment.  Authors delete their own; admins any.
func (h *CommentHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Comments.Delete(ctx, c.Param("id"), uid, middleware.IsAdmin(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
