// Package seatgrid implements the seat selection state of one schedule.
//
// A Grid is rebuilt from the schedule's bookings, lets a user toggle
// seats, and turns the selection into a single booking write.  Booked
// seats cannot be selected.  A Grid is not safe for concurrent use; it
// belongs to one selection session.
package seatgrid

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// SeatPrice is the fixed price of one seat.
const SeatPrice int64 = 12000

var (
	ErrUnknownSeat     = errors.New("unknown seat")
	ErrSeatBooked      = errors.New("seat already booked")
	ErrNoSeatsSelected = errors.New("no seats selected")
	ErrSignInRequired  = errors.New("sign in required")
)

// Booker persists a booking.  It is satisfied by service.BookingService.
type Booker interface {
	Create(ctx context.Context, nb model.NewBooking) (*model.Booking, error)
}

// Details are the display fields copied into the booking on confirm.
type Details struct {
	MovieTitle string
	Theater    string
	Time       string
}

// Grid is the seat map of a single schedule.
type Grid struct {
	key      model.ScheduleKey
	rows     []string
	cols     int
	seats    []model.Seat
	index    map[string]int
	selected []string
	pending  bool
	buyer    *model.User
}

// DefaultRows are the row labels of the standard 7x8 theater.
var DefaultRows = []string{"A", "B", "C", "D", "E", "F", "G"}

// DefaultCols is the number of seats per row of the standard theater.
const DefaultCols = 8

// New builds the standard 7x8 grid for key from bookings.
func New(key model.ScheduleKey, bookings []model.Booking) *Grid {
	return NewWithLayout(key, DefaultRows, DefaultCols, bookings)
}

// NewWithLayout builds a grid with the given row labels and seats per
// row.  Bookings that belong to another schedule are ignored.
func NewWithLayout(key model.ScheduleKey, rows []string, cols int, bookings []model.Booking) *Grid {
	g := &Grid{
		key:   key,
		rows:  append([]string(nil), rows...),
		cols:  cols,
		seats: make([]model.Seat, 0, len(rows)*cols),
		index: make(map[string]int, len(rows)*cols),
	}
	for _, r := range g.rows {
		for n := 1; n <= cols; n++ {
			s := model.Seat{Row: r, Number: n}
			g.index[s.Code()] = len(g.seats)
			g.seats = append(g.seats, s)
		}
	}
	g.ApplyBookings(bookings)
	return g
}

// Key returns the schedule the grid belongs to.
func (g *Grid) Key() model.ScheduleKey { return g.key }

// Size returns the number of seats in the grid.
func (g *Grid) Size() int { return len(g.seats) }

// Seats returns the seats in row-major order.
func (g *Grid) Seats() []model.Seat {
	out := make([]model.Seat, len(g.seats))
	copy(out, g.seats)
	return out
}

// Rows returns the seats grouped by row label, in row order.
func (g *Grid) Rows() [][]model.Seat {
	out := make([][]model.Seat, 0, len(g.rows))
	for i := range g.rows {
		row := make([]model.Seat, g.cols)
		copy(row, g.seats[i*g.cols:(i+1)*g.cols])
		out = append(out, row)
	}
	return out
}

// State returns the state of the seat with the given code.
func (g *Grid) State(code string) (model.SeatState, error) {
	i, ok := g.lookup(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeat, code)
	}
	return g.seats[i].State(), nil
}

// Toggle flips the selection of an available or selected seat and returns
// the new state.  Booked seats are left untouched and ErrSeatBooked is
// returned.
func (g *Grid) Toggle(code string) (model.SeatState, error) {
	i, ok := g.lookup(code)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeat, code)
	}
	seat := &g.seats[i]
	if seat.IsBooked {
		return model.SeatBooked, ErrSeatBooked
	}
	seat.IsSelected = !seat.IsSelected
	if seat.IsSelected {
		g.selected = append(g.selected, seat.Code())
	} else {
		g.removeSelected(seat.Code())
	}
	return seat.State(), nil
}

// Select makes sure every code is selected.  It stops at the first seat
// that cannot be selected; seats selected before that stay selected.
func (g *Grid) Select(codes ...string) error {
	for _, code := range codes {
		st, err := g.State(code)
		if err != nil {
			return err
		}
		switch st {
		case model.SeatSelected:
			continue
		case model.SeatBooked:
			return fmt.Errorf("%w: %s", ErrSeatBooked, NormalizeCode(code))
		}
		if _, err := g.Toggle(code); err != nil {
			return err
		}
	}
	return nil
}

// Selected returns the selected seat codes in selection order.
func (g *Grid) Selected() []string {
	return append([]string{}, g.selected...)
}

// TotalPrice is the number of selected seats times SeatPrice.
func (g *Grid) TotalPrice() int64 { return int64(len(g.selected)) * SeatPrice }

// ClearSelection drops every selection and any pending purchase.
func (g *Grid) ClearSelection() {
	for i := range g.seats {
		g.seats[i].IsSelected = false
	}
	g.selected = nil
	g.pending = false
	g.buyer = nil
}

// Buy starts the purchase of the current selection.  At least one seat
// must be selected.  Without a user the purchase is deferred: Buy returns
// ErrSignInRequired and PendingPurchase reports true until Resume is
// called with a signed-in user.
func (g *Grid) Buy(user *model.User) error {
	if len(g.selected) == 0 {
		return ErrNoSeatsSelected
	}
	if user == nil {
		g.pending = true
		return ErrSignInRequired
	}
	g.pending = false
	g.buyer = user
	return nil
}

// PendingPurchase reports whether a purchase is waiting for sign-in.
func (g *Grid) PendingPurchase() bool { return g.pending }

// Resume continues a deferred purchase once user has signed in.  It
// reports whether a purchase was pending.
func (g *Grid) Resume(user *model.User) (bool, error) {
	if !g.pending {
		return false, nil
	}
	return true, g.Buy(user)
}

// Confirm writes the selection as one booking through booker.  Buy must
// have succeeded first.  On success the seats become booked and the
// selection is cleared; on failure the grid is unchanged.
func (g *Grid) Confirm(ctx context.Context, booker Booker, d Details) (*model.Booking, error) {
	if len(g.selected) == 0 {
		return nil, ErrNoSeatsSelected
	}
	if g.buyer == nil {
		return nil, ErrSignInRequired
	}
	seats := g.Selected()
	b, err := booker.Create(ctx, model.NewBooking{
		ScheduleID: g.key.ScheduleID,
		MovieID:    g.key.MovieID,
		Date:       g.key.Date,
		Seats:      seats,
		UserID:     g.buyer.ID,
		MovieTitle: d.MovieTitle,
		Theater:    d.Theater,
		Time:       d.Time,
		TotalPrice: g.TotalPrice(),
	})
	if err != nil {
		return nil, err
	}
	for _, code := range seats {
		i := g.index[code]
		g.seats[i].IsBooked = true
		g.seats[i].IsSelected = false
	}
	g.selected = nil
	g.buyer = nil
	return b, nil
}

// ApplyBookings recomputes the booked flags from bookings.  A selected
// seat that is now booked is removed from the selection.
func (g *Grid) ApplyBookings(bookings []model.Booking) {
	booked := make(map[string]bool)
	for _, b := range bookings {
		if b.Key() != g.key {
			continue
		}
		for _, s := range b.Seats {
			booked[NormalizeCode(s)] = true
		}
	}
	for i := range g.seats {
		code := g.seats[i].Code()
		g.seats[i].IsBooked = booked[code]
		if g.seats[i].IsBooked && g.seats[i].IsSelected {
			g.seats[i].IsSelected = false
			g.removeSelected(code)
		}
	}
}

// BookedCodes returns the codes of booked seats in row-major order.
func (g *Grid) BookedCodes() []string {
	out := []string{}
	for _, s := range g.seats {
		if s.IsBooked {
			out = append(out, s.Code())
		}
	}
	return out
}

func (g *Grid) lookup(code string) (int, bool) {
	i, ok := g.index[NormalizeCode(code)]
	return i, ok
}

func (g *Grid) removeSelected(code string) {
	for i, c := range g.selected {
		if c == code {
			g.selected = append(g.selected[:i], g.selected[i+1:]...)
			return
		}
	}
}

// NormalizeCode upper-cases the row part of a seat code and strips
// whitespace and leading zeros from the number ("a01" -> "A1").
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	i := 0
	for i < len(code) && code[i] >= 'A' && code[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(code) {
		return code
	}
	n, err := strconv.Atoi(code[i:])
	if err != nil {
		return code
	}
	return code[:i] + strconv.Itoa(n)
}
