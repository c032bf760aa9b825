package model

// Schedule is a theater/time slot for a movie on a given date.  Schedules
// are fabricated from a fixed slot list and are never persisted.
type Schedule struct {
    ID             int64  `json:"id"`
    MovieID        int64  `json:"movie_id"`
    Date           string `json:"date"`
    Theater        string `json:"theater"`
    Time           string `json:"time"`
    AvailableSeats int    `json:"available_seats"`
    TotalSeats     int    `json:"total_seats"`
}

// Key returns the identity of the schedule used for seat bookkeeping.
func (s Schedule) Key() ScheduleKey {
    return ScheduleKey{ScheduleID: s.ID, MovieID: s.MovieID, Date: s.Date}
}

// ScheduleKey identifies the seats of one showing.  The slot id alone is
// shared by every movie and day, so bookings are matched on all three
// fields.
type ScheduleKey struct {
    ScheduleID int64
    MovieID    int64
    Date       string
}
