package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticket-booking/internal/catalog"
    "github.com/iliyamo/cinema-ticket-booking/internal/middleware"
    "github.com/iliyamo/cinema-ticket-booking/internal/model"
    "github.com/iliyamo/cinema-ticket-booking/internal/repository"
    "github.com/iliyamo/cinema-ticket-booking/internal/seatgrid"
    "github.com/iliyamo/cinema-ticket-booking/internal/service"
    "github.com/iliyamo/cinema-ticket-booking/internal/ticket"
)

// BookingHandler turns a seat selection into a booking and serves the
// caller's bookings and tickets.
type BookingHandler struct {
    Catalog  *catalog.Catalog
    Bookings *service.BookingService
    Users    repository.UserStore
}

// createBookingReq is the body of POST .../bookings.
type createBookingReq struct {
    Date  string   `json:"date" validate:"required,datetime=2006-01-02"`
    Seats []string `json:"seats" validate:"required,min=1,max=56,dive,required,max=4"`
}

// BookingResp is a booking together with its ticket QR code.
type BookingResp struct {
    model.Booking
    QR string `json:"qr,omitempty"`
}

// Create books the requested seats of one schedule.  The route runs behind
// OptionalAuth so an anonymous purchase gets the 401 "sign in required"
// answer from the seat grid rather than a bare token error.
func (h *BookingHandler) Create(c echo.Context) error {
    m, ok := h.Catalog.Lookup(c.Param("id"))
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
    }
    if !h.Catalog.Released(m) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":              "movie not released yet",
            "days_until_release": h.Catalog.DaysUntil(m),
        })
    }
    sid, ok := parseInt64Param(c, "scheduleId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
    }
    var req createBookingReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    if !h.Catalog.ValidDate(req.Date) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date outside booking window"})
    }
    sch, ok := catalog.Schedule(m.ID, req.Date, sid, h.Bookings)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
    }

    grid := seatgrid.New(sch.Key(), h.Bookings.BookingsFor(sch.Key()))
    if err := grid.Select(req.Seats...); err != nil {
        switch {
        case errors.Is(err, seatgrid.ErrUnknownSeat):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        case errors.Is(err, seatgrid.ErrSeatBooked):
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
        return writeError(c, err)
    }
    if err := grid.Buy(h.buyer(c)); err != nil {
        if errors.Is(err, seatgrid.ErrSignInRequired) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    b, err := grid.Confirm(ctx, h.Bookings, seatgrid.Details{MovieTitle: m.Title, Theater: sch.Theater, Time: sch.Time})
    if err != nil {
        return writeError(c, err)
    }
    resp := BookingResp{Booking: *b}
    resp.QR, _ = ticket.QRDataURI(*b, ticket.DefaultQRSize)
    return c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) buyer(c echo.Context) *model.User {
    uid, ok := middleware.UserID(c)
    if !ok {
        return nil
    }
    return &model.User{ID: uid, Role: middleware.Role(c)}
}

// MyBookings lists the caller's bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items := h.Bookings.UserBookings(uid)
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Get returns one booking with its QR code.  Only the owner or an admin
// can read it.
func (h *BookingHandler) Get(c echo.Context) error {
    b, ok := h.owned(c)
    if !ok {
        return nil
    }
    resp := BookingResp{Booking: b}
    resp.QR, _ = ticket.QRDataURI(b, ticket.DefaultQRSize)
    return c.JSON(http.StatusOK, resp)
}

// Cancel deletes one of the caller's bookings.
func (h *BookingHandler) Cancel(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Bookings.Cancel(ctx, c.Param("id"), uid); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// QR serves the ticket QR code as a PNG.
func (h *BookingHandler) QR(c echo.Context) error {
    b, ok := h.owned(c)
    if !ok {
        return nil
    }
    size := ticket.DefaultQRSize
    if s, err := strconv.Atoi(c.QueryParam("size")); err == nil && s >= 64 && s <= 1024 {
        size = s
    }
    png, err := ticket.QRPNG(b, size)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "qr failed"})
    }
    return c.Blob(http.StatusOK, "image/png", png)
}

// TicketPDF serves the printable ticket.
func (h *BookingHandler) TicketPDF(c echo.Context) error {
    b, ok := h.owned(c)
    if !ok {
        return nil
    }
    holder := fmt.Sprintf("user #%d", b.UserID)
    if h.Users != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
        defer cancel()
        if u, err := h.Users.GetByID(ctx, b.UserID); err == nil {
            holder = u.DisplayName()
        }
    }
    pdf, err := ticket.PDF(b, holder)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pdf failed"})
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "ticket-"+b.ID+".pdf"))
    return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// owned loads :id and checks the caller may see it.  When ok is false the
// response has already been written.
func (h *BookingHandler) owned(c echo.Context) (model.Booking, bool) {
    uid, err := getUserID(c)
    if err != nil {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return model.Booking{}, false
    }
    b, ok := h.Bookings.Get(c.Param("id"))
    if !ok {
        _ = c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        return model.Booking{}, false
    }
    if b.UserID != uid && !middleware.IsAdmin(c) {
        _ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        return model.Booking{}, false
    }
    return b, true
}
