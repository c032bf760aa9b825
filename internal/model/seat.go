package model

import "strconv"

// SeatState is the display state of a seat in a grid.  A seat is in
// exactly one state at a time.
type SeatState string

const (
    SeatAvailable SeatState = "AVAILABLE"
    SeatSelected  SeatState = "SELECTED"
    SeatBooked    SeatState = "BOOKED"
)

// Seat describes a single seat of a schedule's grid.  Seats are not
// stored; the booked flag is derived from the bookings of the schedule
// every time a grid is built.
type Seat struct {
    Row        string `json:"row"`
    Number     int    `json:"number"`
    IsSelected bool   `json:"is_selected"`
    IsBooked   bool   `json:"is_booked"`
}

// Code returns the seat code, e.g. "A1".
func (s Seat) Code() string { return s.Row + strconv.Itoa(s.Number) }

// State folds the two flags into a SeatState.  Booked wins over selected.
func (s Seat) State() SeatState {
    switch {
    case s.IsBooked:
        return SeatBooked
    case s.IsSelected:
        return SeatSelected
    default:
        return SeatAvailable
    }
}
