package queue

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinema-ticket-booking/internal/model"
)

func TestDispatcherRoutesByTable(t *testing.T) {
    d := NewDispatcher()
    var bookings, all int
    d.Handle(TableBookings, func(context.Context, ChangeEvent) error { bookings++; return nil })
    d.HandleAll(func(context.Context, ChangeEvent) error { all++; return nil })

    require.NoError(t, d.Publish(context.Background(), NewDeleteEvent(TableBookings, "me", "1")))
    require.NoError(t, d.Publish(context.Background(), NewDeleteEvent(TableLikes, "me", "2")))

    assert.Equal(t, 1, bookings)
    assert.Equal(t, 2, all)
}

func TestDispatcherRunsAllHandlersOnError(t *testing.T) {
    d := NewDispatcher()
    boom := errors.New("boom")
    ran := false
    d.Handle(TableLikes, func(context.Context, ChangeEvent) error { return boom })
    d.Handle(TableLikes, func(context.Context, ChangeEvent) error { ran = true; return nil })

    err := d.Dispatch(context.Background(), NewDeleteEvent(TableLikes, "me", "x"))
    assert.ErrorIs(t, err, boom)
    assert.True(t, ran)
}

func TestInsertEventDecode(t *testing.T) {
    ev, err := NewInsertEvent(TableBookings, "me", model.Booking{ID: "b1", Seats: []string{"A1"}})
    require.NoError(t, err)
    assert.Equal(t, TypeInsert, ev.Type)

    var b model.Booking
    require.NoError(t, ev.Decode(&b))
    assert.Equal(t, "b1", b.ID)

    assert.Error(t, NewDeleteEvent(TableBookings, "me", "b1").Decode(&b))
}

type fakeMailer struct{ to []string }

func (m *fakeMailer) SendBookingConfirmation(_ context.Context, to string, _ model.Booking) error {
    m.to = append(m.to, to)
    return nil
}

type fakeUsers struct{}

func (fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    return model.User{ID: id, Email: "kim@example.com"}, nil
}

func TestBookingNotifier(t *testing.T) {
    dir := t.TempDir()
    m := &fakeMailer{}
    n := &BookingNotifier{Dir: dir, Origin: "me", Users: fakeUsers{}, Mailer: m}

    title := "Zootopia 2"
    b := model.Booking{ID: "b1", UserID: 3, MovieID: 2, Date: "2026-10-18", ScheduleID: 1,
        Seats: []string{"A1", "B2"}, MovieTitle: &title}
    own, err := NewInsertEvent(TableBookings, "me", b)
    require.NoError(t, err)
    foreign, err := NewInsertEvent(TableBookings, "other", b)
    require.NoError(t, err)

    require.NoError(t, n.Handle(context.Background(), own))
    require.NoError(t, n.Handle(context.Background(), foreign))
    require.NoError(t, n.Handle(context.Background(), NewDeleteEvent(TableBookings, "me", "b1")))

    n.Wait()

    data, err := os.ReadFile(filepath.Join(dir, "booking.log"))
    require.NoError(t, err)
    assert.Contains(t, string(data), `booking_id=b1 | user_id=3`)
    assert.Contains(t, string(data), `movie="Zootopia 2"`)
    assert.Contains(t, string(data), `seats=[A1,B2]`)
    assert.Equal(t, []string{"kim@example.com"}, m.to)
}

// blockingMailer holds every send until release is closed.
type blockingMailer struct {
    release chan struct{}
    sent    chan string
}

func (m *blockingMailer) SendBookingConfirmation(ctx context.Context, to string, _ model.Booking) error {
    select {
    case <-m.release:
    case <-ctx.Done():
        return ctx.Err()
    }
    m.sent <- to
    return nil
}

func TestBookingNotifierDoesNotWaitForMail(t *testing.T) {
    m := &blockingMailer{release: make(chan struct{}), sent: make(chan string, 1)}
    n := &BookingNotifier{Dir: t.TempDir(), Origin: "me", Users: fakeUsers{}, Mailer: m}
    ev, err := NewInsertEvent(TableBookings, "me", model.Booking{ID: "b1", UserID: 3, Seats: []string{"A1"}})
    require.NoError(t, err)

    done := make(chan error, 1)
    go func() { done <- n.Handle(context.Background(), ev) }()
    select {
    case err := <-done:
        require.NoError(t, err)
    case <-time.After(time.Second):
        t.Fatal("Handle blocked on the mailer")
    }

    close(m.release)
    n.Wait()
    assert.Equal(t, "kim@example.com", <-m.sent)
}

func TestBookingNotifierMailTimeout(t *testing.T) {
    m := &blockingMailer{release: make(chan struct{}), sent: make(chan string, 1)}
    n := &BookingNotifier{Dir: t.TempDir(), Origin: "me", Users: fakeUsers{}, Mailer: m, MailTimeout: 20 * time.Millisecond}
    ev, err := NewInsertEvent(TableBookings, "me", model.Booking{ID: "b1", UserID: 3, Seats: []string{"A1"}})
    require.NoError(t, err)

    ctx, cancel := context.WithCancel(context.Background())
    require.NoError(t, n.Handle(ctx, ev))
    cancel()
    n.Wait()
    assert.Empty(t, m.sent)
}

func TestFormatBookingLine(t *testing.T) {
    at := time.Date(2026, 10, 18, 1, 2, 3, 0, time.UTC)
    line := FormatBookingLine(model.Booking{ID: "x", Seats: []string{}}, at)
    assert.Contains(t, line, "[2026-10-18T01:02:03Z] Booking confirmed")
    assert.Contains(t, line, "seats=[]")
}
