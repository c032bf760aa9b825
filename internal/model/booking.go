package model

import "time"

// Booking records a user's reservation of one or more seats for a
// schedule.  The seats are stored as seat codes ("A1", "B2", ...).  The
// display fields are copied at booking time so a booking history can be
// rendered without looking the schedule up again.
//
// Fields:
//  ID         – UUID primary key.
//  ScheduleID – schedule slot the seats belong to.
//  MovieID    – movie being watched.
//  Date       – show date, YYYY-MM-DD.
//  Seats      – booked seat codes in selection order.
//  UserID     – user who booked.
//  MovieTitle – optional display title.
//  Theater    – optional display theater name.
//  Time       – optional display start time (HH:MM).
//  TotalPrice – optional price paid for all seats.
//  CreatedAt  – creation timestamp.
type Booking struct {
    ID         string    `json:"id"`          // bookings.id
    ScheduleID int64     `json:"schedule_id"` // bookings.schedule_id
    MovieID    int64     `json:"movie_id"`    // bookings.movie_id
    Date       string    `json:"date"`        // bookings.show_date
    Seats      []string  `json:"seats"`       // bookings.seats (JSON array)
    UserID     uint64    `json:"user_id"`     // bookings.user_id
    MovieTitle *string   `json:"movie_title,omitempty"`
    Theater    *string   `json:"theater,omitempty"`
    Time       *string   `json:"time,omitempty"`
    TotalPrice *int64    `json:"total_price,omitempty"`
    CreatedAt  time.Time `json:"created_at"`
}

// Key returns the schedule key the booking belongs to.
func (b Booking) Key() ScheduleKey {
    return ScheduleKey{ScheduleID: b.ScheduleID, MovieID: b.MovieID, Date: b.Date}
}

// HasSeat reports whether code is one of the booked seats.
func (b Booking) HasSeat(code string) bool {
    for _, s := range b.Seats {
        if s == code {
            return true
        }
    }
    return false
}

// NewBooking carries the input of a booking action before it is
// persisted.  The ID and CreatedAt fields are assigned by the store.
type NewBooking struct {
    ScheduleID int64
    MovieID    int64
    Date       string
    Seats      []string
    UserID     uint64
    MovieTitle string
    Theater    string
    Time       string
    TotalPrice int64
}
