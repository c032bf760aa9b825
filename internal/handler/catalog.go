package handler

import (
    "net/http"

    "github.com/jinzhu/copier"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticket-booking/internal/catalog"
    "github.com/iliyamo/cinema-ticket-booking/internal/middleware"
    "github.com/iliyamo/cinema-ticket-booking/internal/model"
    "github.com/iliyamo/cinema-ticket-booking/internal/seatgrid"
    "github.com/iliyamo/cinema-ticket-booking/internal/service"
)

// CatalogHandler serves the public movie, date, schedule and seat map
// endpoints.  Counts come from the synced caches, so these routes work
// without a database.
type CatalogHandler struct {
    Catalog  *catalog.Catalog
    Bookings *service.BookingService
    Likes    *service.LikeService
    Comments *service.CommentService
}

// MovieResp is a movie as listed publicly.
type MovieResp struct {
    ID               int64   `json:"id"`
    Slug             string  `json:"slug"`
    Title            string  `json:"title"`
    Description      string  `json:"description"`
    Poster           string  `json:"poster"`
    ReleaseDate      *string `json:"release_date,omitempty"`
    Released         bool    `json:"released"`
    DaysUntilRelease int     `json:"days_until_release"`
}

// MovieDetailResp adds the social data of a single movie.
type MovieDetailResp struct {
    MovieResp
    LikeCount    int             `json:"like_count"`
    Liked        bool            `json:"liked"`
    CommentCount int             `json:"comment_count"`
    Comments     []model.Comment `json:"comments"`
}

// SeatMapResp is the seat grid of one schedule.
type SeatMapResp struct {
    Schedule  model.Schedule `json:"schedule"`
    Rows      [][]SeatResp   `json:"rows"`
    Booked    []string       `json:"booked"`
    SeatPrice int64          `json:"seat_price"`
}

// SeatResp is one cell of the seat map.
type SeatResp struct {
    Code  string          `json:"code"`
    Row   string          `json:"row"`
    Num   int             `json:"number"`
    State model.SeatState `json:"state"`
}

func (h *CatalogHandler) movieResp(m model.Movie) MovieResp {
    var out MovieResp
    _ = copier.Copy(&out, &m)
    out.Released = h.Catalog.Released(m)
    out.DaysUntilRelease = h.Catalog.DaysUntil(m)
    return out
}

// ListMovies returns every movie with its release state.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
    movies := h.Catalog.Movies()
    out := make([]MovieResp, 0, len(movies))
    for _, m := range movies {
        out = append(out, h.movieResp(m))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetMovie returns one movie by id or slug with likes and the latest
// comments.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
    m, ok := h.Catalog.Lookup(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
    }
    resp := MovieDetailResp{
        MovieResp:    h.movieResp(m),
        LikeCount:    h.Likes.Count(m.ID),
        CommentCount: h.Comments.Count(m.ID),
        Comments:     h.Comments.MovieComments(m.ID, service.DefaultCommentLimit),
    }
    if uid, ok := middleware.UserID(c); ok {
        resp.Liked = h.Likes.IsLiked(m.ID, uid)
    }
    return c.JSON(http.StatusOK, resp)
}

// ListDates returns the selectable show dates.
func (h *CatalogHandler) ListDates(c echo.Context) error {
    m, ok := h.Catalog.Lookup(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "movie_id": m.ID,
        "released": h.Catalog.Released(m),
        "dates":    h.Catalog.DateOptions(),
    })
}

// ListSchedules returns the slots of a movie on ?date= with seat counts.
func (h *CatalogHandler) ListSchedules(c echo.Context) error {
    m, date, ok, err := h.bookableMovie(c)
    if !ok {
        return err
    }
    return c.JSON(http.StatusOK, echo.Map{
        "movie_id": m.ID,
        "date":     date,
        "items":    catalog.Schedules(m.ID, date, h.Bookings),
    })
}

// SeatMap returns the seat grid of one schedule on ?date=.
func (h *CatalogHandler) SeatMap(c echo.Context) error {
    m, date, ok, err := h.bookableMovie(c)
    if !ok {
        return err
    }
    sid, ok := parseInt64Param(c, "scheduleId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
    }
    sch, ok := catalog.Schedule(m.ID, date, sid, h.Bookings)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
    }
    g := seatgrid.New(sch.Key(), h.Bookings.BookingsFor(sch.Key()))
    rows := make([][]SeatResp, 0, len(seatgrid.DefaultRows))
    for _, r := range g.Rows() {
        line := make([]SeatResp, 0, len(r))
        for _, s := range r {
            line = append(line, SeatResp{Code: s.Code(), Row: s.Row, Num: s.Number, State: s.State()})
        }
        rows = append(rows, line)
    }
    return c.JSON(http.StatusOK, SeatMapResp{Schedule: sch, Rows: rows, Booked: g.BookedCodes(), SeatPrice: seatgrid.SeatPrice})
}

// bookableMovie resolves :id and ?date= for the schedule routes.  When ok
// is false the response has been written and err is its result.
func (h *CatalogHandler) bookableMovie(c echo.Context) (model.Movie, string, bool, error) {
    m, found := h.Catalog.Lookup(c.Param("id"))
    if !found {
        return m, "", false, c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
    }
    if !h.Catalog.Released(m) {
        return m, "", false, c.JSON(http.StatusConflict, echo.Map{
            "error":              "movie not released yet",
            "days_until_release": h.Catalog.DaysUntil(m),
        })
    }
    date := c.QueryParam("date")
    if date == "" {
        date = h.Catalog.DateOptions()[0]
    }
    if !h.Catalog.ValidDate(date) {
        return m, "", false, c.JSON(http.StatusBadRequest, echo.Map{"error": "date outside booking window"})
    }
    return m, date, true, nil
}
