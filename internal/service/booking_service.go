package service

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "sort"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/cinema-ticket-booking/internal/livesync"
    "github.com/iliyamo/cinema-ticket-booking/internal/model"
    q "github.com/iliyamo/cinema-ticket-booking/internal/queue"
    "github.com/iliyamo/cinema-ticket-booking/internal/repository"
    "github.com/iliyamo/cinema-ticket-booking/internal/seatgrid"
)

var (
    // ErrNoSeats is returned when a booking names no seats.
    ErrNoSeats = errors.New("no seats in booking")
    // ErrSeatsTaken is returned when the local cache already shows one of
    // the requested seats as booked.
    ErrSeatsTaken = fmt.Errorf("seats already booked: %w", repository.ErrConflict)
)

// BookingService owns the cached booking list of this instance.  Reads are
// served from the cache; writes go to the store first and reach the cache
// only after they succeed.  Seats are not locked across instances: two
// concurrent requests on different instances can still book the same seat.
type BookingService struct {
    repo  repository.BookingStore
    m     mirror[model.Booking]
    now   func() time.Time
    newID func() string
}

func NewBookingService(repo repository.BookingStore, pub q.Publisher, origin string, logger *slog.Logger) *BookingService {
    return &BookingService{
        repo:  repo,
        m:     newMirror(q.TableBookings, origin, func(b model.Booking) string { return b.ID }, livesync.Append, pub, logger),
        now:   time.Now,
        newID: uuid.NewString,
    }
}

// Load replaces the cache with a fresh snapshot of the store.
func (s *BookingService) Load(ctx context.Context) error {
    return s.m.load(ctx, s.repo.ListAll)
}

// Loaded reports whether a snapshot has been applied.
func (s *BookingService) Loaded() bool { return s.m.items.Loaded() }

// Create persists nb as one booking.  On failure the error is logged and
// returned and the cache is untouched.
func (s *BookingService) Create(ctx context.Context, nb model.NewBooking) (*model.Booking, error) {
    seats := uniqueSeats(nb.Seats)
    if len(seats) == 0 {
        return nil, ErrNoSeats
    }
    key := model.ScheduleKey{ScheduleID: nb.ScheduleID, MovieID: nb.MovieID, Date: nb.Date}
    if taken := s.takenSeats(key, seats); len(taken) > 0 {
        return nil, fmt.Errorf("%w: %v", ErrSeatsTaken, taken)
    }

    b := model.Booking{
        ID:         s.newID(),
        ScheduleID: nb.ScheduleID,
        MovieID:    nb.MovieID,
        Date:       nb.Date,
        Seats:      seats,
        UserID:     nb.UserID,
        MovieTitle: optString(nb.MovieTitle),
        Theater:    optString(nb.Theater),
        Time:       optString(nb.Time),
        CreatedAt:  s.now().UTC().Truncate(time.Second),
    }
    if nb.TotalPrice > 0 {
        tp := nb.TotalPrice
        b.TotalPrice = &tp
    }
    if err := s.repo.Create(ctx, &b); err != nil {
        s.m.logger.Error("create booking failed", "user_id", nb.UserID, "seats", seats, "error", err)
        return nil, fmt.Errorf("create booking: %w", err)
    }
    s.m.inserted(ctx, b)
    s.m.logger.Info("booking created", "booking_id", b.ID, "user_id", b.UserID, "seats", len(seats))
    return &b, nil
}

// Cancel deletes the booking id on behalf of userID.  Only the owner may
// cancel.
func (s *BookingService) Cancel(ctx context.Context, id string, userID uint64) error {
    b, ok := s.m.items.Get(id)
    if !ok {
        var err error
        b, err = s.repo.GetByID(ctx, id)
        if err != nil {
            return fmt.Errorf("cancel booking %s: %w", id, err)
        }
    }
    if b.UserID != userID {
        return fmt.Errorf("cancel booking %s: %w", id, repository.ErrForbidden)
    }
    return s.Delete(ctx, id)
}

// Delete removes exactly the booking id from the store and the cache.
func (s *BookingService) Delete(ctx context.Context, id string) error {
    err := s.repo.Delete(ctx, id)
    if err != nil && !errors.Is(err, repository.ErrNotFound) {
        s.m.logger.Error("delete booking failed", "booking_id", id, "error", err)
        return fmt.Errorf("delete booking %s: %w", id, err)
    }
    if err != nil {
        // already gone from the store; only drop a stale cached copy
        if s.m.items.Remove(id) {
            s.m.announceDelete(ctx, id)
        }
        return fmt.Errorf("delete booking %s: %w", id, err)
    }
    s.m.deleted(ctx, id)
    return nil
}

// ApplyChange merges a bookings change event from the feed.
func (s *BookingService) ApplyChange(_ context.Context, ev q.ChangeEvent) error {
    return s.m.apply(ev)
}

// Get returns the cached booking id.
func (s *BookingService) Get(id string) (model.Booking, bool) { return s.m.items.Get(id) }

// All returns every cached booking, oldest first.
func (s *BookingService) All() []model.Booking { return s.m.items.All() }

// BookingsFor returns the bookings of one schedule.
func (s *BookingService) BookingsFor(key model.ScheduleKey) []model.Booking {
    return s.m.items.Filter(func(b model.Booking) bool { return b.Key() == key })
}

// BookedSeatsCount returns the number of booked seats of one schedule.
func (s *BookingService) BookedSeatsCount(key model.ScheduleKey) int {
    n := 0
    for _, b := range s.BookingsFor(key) {
        n += len(b.Seats)
    }
    return n
}

// UserBookings returns the bookings of userID, newest first.
func (s *BookingService) UserBookings(userID uint64) []model.Booking {
    out := s.m.items.Filter(func(b model.Booking) bool { return b.UserID == userID })
    sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
    return out
}

func (s *BookingService) takenSeats(key model.ScheduleKey, seats []string) []string {
    booked := make(map[string]bool)
    for _, b := range s.BookingsFor(key) {
        for _, code := range b.Seats {
            booked[seatgrid.NormalizeCode(code)] = true
        }
    }
    taken := []string{}
    for _, code := range seats {
        if booked[code] {
            taken = append(taken, code)
        }
    }
    return taken
}

func uniqueSeats(codes []string) []string {
    seen := make(map[string]bool, len(codes))
    out := make([]string, 0, len(codes))
    for _, c := range codes {
        c = seatgrid.NormalizeCode(c)
        if c == "" || seen[c] {
            continue
        }
        seen[c] = true
        out = append(out, c)
    }
    return out
}

func optString(s string) *string {
    if s == "" {
        return nil
    }
    return &s
}
