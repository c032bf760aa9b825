package catalog

import (
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// DefaultDateWindow is the number of days offered for booking.
const DefaultDateWindow = 7

// Seat grid dimensions shared by every theater.
var (
	SeatRows    = []string{"A", "B", "C", "D", "E", "F", "G"}
	SeatsPerRow = 8
	TotalSeats  = len(SeatRows) * SeatsPerRow
)

type slot struct {
	id      int64
	theater string
	time    string
}

var slots = []slot{
	{1, "1 Theater", "10:00"},
	{2, "2 Theater", "13:30"},
	{3, "3 Theater", "16:00"},
	{4, "1 Theater", "19:00"},
	{5, "2 Theater", "21:30"},
}

// SeatCounter reports how many seats are already booked for a schedule.
type SeatCounter interface {
	BookedSeatsCount(key model.ScheduleKey) int
}

// DateOptions returns n consecutive dates starting at today's calendar day.
func DateOptions(today time.Time, n int) []string {
	if n <= 0 {
		return []string{}
	}
	start := dayOf(today)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(DateLayout))
	}
	return out
}

// Schedules fabricates the fixed slot list for movieID on date.  Available
// seats are the theater capacity minus the seats already booked for each
// slot.  A nil counter treats every slot as empty.
func Schedules(movieID int64, date string, counter SeatCounter) []model.Schedule {
	out := make([]model.Schedule, 0, len(slots))
	for _, s := range slots {
		sch := model.Schedule{
			ID:         s.id,
			MovieID:    movieID,
			Date:       date,
			Theater:    s.theater,
			Time:       s.time,
			TotalSeats: TotalSeats,
		}
		booked := 0
		if counter != nil {
			booked = counter.BookedSeatsCount(sch.Key())
		}
		sch.AvailableSeats = TotalSeats - booked
		if sch.AvailableSeats < 0 {
			sch.AvailableSeats = 0
		}
		out = append(out, sch)
	}
	return out
}

// Schedule returns the single slot with id for movieID on date.
func Schedule(movieID int64, date string, id int64, counter SeatCounter) (model.Schedule, bool) {
	for _, s := range Schedules(movieID, date, counter) {
		if s.ID == id {
			return s, true
		}
	}
	return model.Schedule{}, false
}

// ValidDate reports whether date is one of the offered dates.
func (c *Catalog) ValidDate(date string) bool {
	for _, d := range c.DateOptions() {
		if d == date {
			return true
		}
	}
	return false
}
