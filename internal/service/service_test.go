package service

import (
    "context"
    "errors"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinema-ticket-booking/internal/model"
    q "github.com/iliyamo/cinema-ticket-booking/internal/queue"
    "github.com/iliyamo/cinema-ticket-booking/internal/repository"
    "github.com/iliyamo/cinema-ticket-booking/internal/seatgrid"
)

var errStoreDown = errors.New("store down")

// failingBookings fails every write.
type failingBookings struct{ *repository.MemoryBookingRepo }

func (failingBookings) Create(context.Context, *model.Booking) error { return errStoreDown }
func (failingBookings) Delete(context.Context, string) error          { return errStoreDown }

func seqIDs(prefix string) func() string {
    n := 0
    return func() string { n++; return fmt.Sprintf("%s-%d", prefix, n) }
}

func newBookings(t *testing.T, repo repository.BookingStore, pub q.Publisher) *BookingService {
    t.Helper()
    s := NewBookingService(repo, pub, "test", nil)
    s.newID = seqIDs("b")
    require.NoError(t, s.Load(context.Background()))
    return s
}

var key = model.ScheduleKey{ScheduleID: 1, MovieID: 2, Date: "2026-10-18"}

func nb(user uint64, seats ...string) model.NewBooking {
    return model.NewBooking{ScheduleID: key.ScheduleID, MovieID: key.MovieID, Date: key.Date,
        Seats: seats, UserID: user, MovieTitle: "Zootopia 2", TotalPrice: int64(len(seats)) * seatgrid.SeatPrice}
}

func TestBookingService_CreateAndCount(t *testing.T) {
    ctx := context.Background()
    s := newBookings(t, repository.NewMemoryBookingRepo(), nil)

    b, err := s.Create(ctx, nb(7, "a1", "B2"))
    require.NoError(t, err)
    assert.Equal(t, []string{"A1", "B2"}, b.Seats)
    assert.Equal(t, int64(24000), *b.TotalPrice)
    assert.Nil(t, b.Theater)

    assert.Equal(t, 2, s.BookedSeatsCount(key))
    assert.Equal(t, 0, s.BookedSeatsCount(model.ScheduleKey{ScheduleID: 1, MovieID: 3, Date: key.Date}))
    assert.Len(t, s.UserBookings(7), 1)
    assert.Empty(t, s.UserBookings(8))

    _, err = s.Create(ctx, nb(8, "B2", "C3"))
    assert.ErrorIs(t, err, ErrSeatsTaken)
    assert.ErrorIs(t, err, repository.ErrConflict)

    _, err = s.Create(ctx, nb(8))
    assert.ErrorIs(t, err, ErrNoSeats)

    dup, err := s.Create(ctx, nb(8, "c1", "C1", " c01 "))
    require.NoError(t, err)
    assert.Equal(t, []string{"C1"}, dup.Seats)
}

func TestBookingService_CreateFailureLeavesCache(t *testing.T) {
    s := newBookings(t, failingBookings{repository.NewMemoryBookingRepo()}, nil)

    _, err := s.Create(context.Background(), nb(7, "A1"))
    assert.ErrorIs(t, err, errStoreDown)
    assert.Empty(t, s.All())
}

func TestBookingService_CancelRemovesExactlyThatID(t *testing.T) {
    ctx := context.Background()
    repo := repository.NewMemoryBookingRepo()
    s := newBookings(t, repo, nil)

    first, err := s.Create(ctx, nb(7, "A1"))
    require.NoError(t, err)
    second, err := s.Create(ctx, nb(7, "A2"))
    require.NoError(t, err)
    other, err := s.Create(ctx, nb(9, "A3"))
    require.NoError(t, err)

    assert.ErrorIs(t, s.Cancel(ctx, other.ID, 7), repository.ErrForbidden)
    require.NoError(t, s.Cancel(ctx, first.ID, 7))

    _, ok := s.Get(first.ID)
    assert.False(t, ok)
    _, err = repo.GetByID(ctx, first.ID)
    assert.ErrorIs(t, err, repository.ErrNotFound)

    left := s.All()
    require.Len(t, left, 2)
    assert.Equal(t, second.ID, left[0].ID)
    assert.Equal(t, other.ID, left[1].ID)

    assert.ErrorIs(t, s.Cancel(ctx, "missing", 7), repository.ErrNotFound)
}

func TestBookingService_LocalFeed(t *testing.T) {
    ctx := context.Background()
    d := q.NewDispatcher()

    repo := repository.NewMemoryBookingRepo()
    writer := newBookings(t, repo, d)
    reader := newBookings(t, repo, d)
    d.Handle(q.TableBookings, writer.ApplyChange)
    d.Handle(q.TableBookings, reader.ApplyChange)

    b, err := writer.Create(ctx, nb(7, "A1"))
    require.NoError(t, err)
    assert.Len(t, writer.All(), 1)
    got, ok := reader.Get(b.ID)
    require.True(t, ok)
    assert.Equal(t, []string{"A1"}, got.Seats)

    require.NoError(t, writer.Delete(ctx, b.ID))
    assert.Empty(t, reader.All())
    assert.Empty(t, writer.All())
}

func TestBookingService_ApplyChangeIdempotent(t *testing.T) {
    s := newBookings(t, repository.NewMemoryBookingRepo(), nil)
    ev, err := q.NewInsertEvent(q.TableBookings, "other", model.Booking{ID: "x", Seats: []string{"A1"}})
    require.NoError(t, err)

    require.NoError(t, s.ApplyChange(context.Background(), ev))
    require.NoError(t, s.ApplyChange(context.Background(), ev))
    assert.Len(t, s.All(), 1)

    del := q.NewDeleteEvent(q.TableBookings, "other", "x")
    require.NoError(t, s.ApplyChange(context.Background(), del))
    require.NoError(t, s.ApplyChange(context.Background(), del))
    assert.Empty(t, s.All())
}

func TestBookingService_LoadSnapshot(t *testing.T) {
    now := time.Now()
    repo := repository.NewMemoryBookingRepo(
        model.Booking{ID: "old", ScheduleID: 1, MovieID: 2, Date: key.Date, Seats: []string{"A1", "A2"}, UserID: 1, CreatedAt: now.Add(-time.Hour)},
        model.Booking{ID: "new", ScheduleID: 1, MovieID: 2, Date: key.Date, Seats: []string{"B1"}, UserID: 1, CreatedAt: now},
    )
    s := newBookings(t, repo, nil)
    assert.True(t, s.Loaded())
    assert.Equal(t, 3, s.BookedSeatsCount(key))

    mine := s.UserBookings(1)
    require.Len(t, mine, 2)
    assert.Equal(t, "new", mine[0].ID)
}

func TestGridConfirmThroughService(t *testing.T) {
    ctx := context.Background()
    s := newBookings(t, repository.NewMemoryBookingRepo(), nil)
    g := seatgrid.New(key, s.BookingsFor(key))

    require.NoError(t, g.Select("A1", "B2"))
    require.NoError(t, g.Buy(&model.User{ID: 5}))
    b, err := g.Confirm(ctx, s, seatgrid.Details{MovieTitle: "Zootopia 2", Theater: "1 Theater", Time: "10:00"})
    require.NoError(t, err)
    assert.Equal(t, int64(24000), *b.TotalPrice)

    fresh := seatgrid.New(key, s.BookingsFor(key))
    assert.Equal(t, []string{"A1", "B2"}, fresh.BookedCodes())
}

func TestLikeService_Toggle(t *testing.T) {
    ctx := context.Background()
    s := NewLikeService(repository.NewMemoryLikeRepo(), nil, "test", nil)
    require.NoError(t, s.Load(ctx))

    liked, err := s.Toggle(ctx, 1, 7)
    require.NoError(t, err)
    assert.True(t, liked)
    assert.True(t, s.IsLiked(1, 7))
    assert.Equal(t, 1, s.Count(1))

    _, err = s.Toggle(ctx, 2, 7)
    require.NoError(t, err)
    assert.Equal(t, []int64{1, 2}, s.UserLikes(7))

    liked, err = s.Toggle(ctx, 1, 7)
    require.NoError(t, err)
    assert.False(t, liked)
    assert.Equal(t, 0, s.Count(1))
    assert.Equal(t, []int64{2}, s.UserLikes(7))
}

func TestCommentService(t *testing.T) {
    ctx := context.Background()
    s := NewCommentService(repository.NewMemoryCommentRepo(), nil, "test", nil)
    require.NoError(t, s.Load(ctx))
    base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
    i := 0
    s.now = func() time.Time { i++; return base.Add(time.Duration(i) * time.Minute) }

    author := model.User{ID: 3, Email: "kim@example.com"}
    var ids []string
    for n := 1; n <= 7; n++ {
        c, err := s.Add(ctx, 1, author, fmt.Sprintf("comment %d", n))
        require.NoError(t, err)
        ids = append(ids, c.ID)
    }
    _, err := s.Add(ctx, 2, author, "other movie")
    require.NoError(t, err)

    latest := s.MovieComments(1, 0)
    require.Len(t, latest, DefaultCommentLimit)
    assert.Equal(t, "comment 7", latest[0].Content)
    assert.Equal(t, "comment 3", latest[4].Content)
    assert.Equal(t, "kim", *latest[0].UserName)
    assert.Equal(t, 7, s.Count(1))

    _, err = s.Add(ctx, 1, author, "   ")
    assert.ErrorIs(t, err, ErrInvalidComment)

    assert.ErrorIs(t, s.Delete(ctx, ids[6], 99, false), repository.ErrForbidden)
    require.NoError(t, s.Delete(ctx, ids[6], 99, true))
    require.NoError(t, s.Delete(ctx, ids[5], 3, false))
    assert.Equal(t, "comment 5", s.MovieComments(1, 0)[0].Content)
}

// Reload must pick up comments in store order (newest first).
func TestCommentService_Reload(t *testing.T) {
    ctx := context.Background()
    repo := repository.NewMemoryCommentRepo()
    base := time.Now()
    require.NoError(t, repo.Create(ctx, &model.Comment{ID: "a", MovieID: 1, Content: "old", CreatedAt: base.Add(-time.Hour)}))
    require.NoError(t, repo.Create(ctx, &model.Comment{ID: "b", MovieID: 1, Content: "new", CreatedAt: base}))

    s := NewCommentService(repo, nil, "test", nil)
    require.NoError(t, s.Load(ctx))
    got := s.MovieComments(1, 5)
    require.Len(t, got, 2)
    assert.Equal(t, "new", got[0].Content)
}

// pausedListing blocks ListAll after taking its snapshot until release is
// closed.
type pausedListing struct {
    *repository.MemoryBookingRepo
    started chan struct{}
    release chan struct{}
}

func (p pausedListing) ListAll(ctx context.Context) ([]model.Booking, error) {
    snap, err := p.MemoryBookingRepo.ListAll(ctx)
    close(p.started)
    <-p.release
    return snap, err
}

func TestBookingService_ResyncKeepsConcurrentCreate(t *testing.T) {
    ctx := context.Background()
    mem := repository.NewMemoryBookingRepo()
    s := newBookings(t, mem, nil)

    slow := pausedListing{MemoryBookingRepo: mem, started: make(chan struct{}), release: make(chan struct{})}
    s.repo = slow
    done := make(chan error, 1)
    go func() { done <- s.Load(ctx) }()
    <-slow.started

    b, err := s.Create(ctx, nb(7, "A1"))
    require.NoError(t, err)
    close(slow.release)
    require.NoError(t, <-done)

    _, ok := s.Get(b.ID)
    assert.True(t, ok)
    assert.Equal(t, 1, s.BookedSeatsCount(key))
    _, err = s.Create(ctx, nb(8, "A1"))
    assert.ErrorIs(t, err, ErrSeatsTaken)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct{ events []q.ChangeEvent }

func (p *recordingPublisher) Publish(_ context.Context, ev q.ChangeEvent) error {
    p.events = append(p.events, ev)
    return nil
}

func TestBookingService_DeleteMissingPublishesNothing(t *testing.T) {
    pub := &recordingPublisher{}
    s := newBookings(t, repository.NewMemoryBookingRepo(), pub)

    assert.ErrorIs(t, s.Delete(context.Background(), "missing"), repository.ErrNotFound)
    assert.Empty(t, pub.events)
}

func TestBookingService_DeleteStaleCacheEntry(t *testing.T) {
    ctx := context.Background()
    pub := &recordingPublisher{}
    s := newBookings(t, repository.NewMemoryBookingRepo(), pub)
    ev, err := q.NewInsertEvent(q.TableBookings, "other", model.Booking{ID: "x", Seats: []string{"A1"}})
    require.NoError(t, err)
    require.NoError(t, s.ApplyChange(ctx, ev))

    assert.ErrorIs(t, s.Delete(ctx, "x"), repository.ErrNotFound)
    assert.Empty(t, s.All())
    require.Len(t, pub.events, 1)
    assert.Equal(t, "x", pub.events[0].OldID)
}

func TestLikeService_ToggleAfterConflict(t *testing.T) {
    ctx := context.Background()
    repo := repository.NewMemoryLikeRepo()
    s := NewLikeService(repo, nil, "test", nil)
    require.NoError(t, s.Load(ctx))

    // written by another instance whose event never arrived
    require.NoError(t, repo.Create(ctx, &model.Like{ID: "elsewhere", MovieID: 1, UserID: 7}))

    liked, err := s.Toggle(ctx, 1, 7)
    require.NoError(t, err)
    assert.True(t, liked)
    assert.True(t, s.IsLiked(1, 7))

    liked, err = s.Toggle(ctx, 1, 7)
    require.NoError(t, err)
    assert.False(t, liked)
    all, err := repo.ListAll(ctx)
    require.NoError(t, err)
    assert.Empty(t, all)
}

// slowMailer holds every send until release is closed.
type slowMailer struct {
    release chan struct{}
    sent    chan string
}

func (m *slowMailer) SendBookingConfirmation(ctx context.Context, to string, _ model.Booking) error {
    select {
    case <-m.release:
    case <-ctx.Done():
        return ctx.Err()
    }
    m.sent <- to
    return nil
}

type oneUser struct{}

func (oneUser) GetByID(_ context.Context, id uint64) (model.User, error) {
    return model.User{ID: id, Email: "kim@example.com"}, nil
}

func TestBookingService_CreateDoesNotWaitForMail(t *testing.T) {
    ctx := context.Background()
    d := q.NewDispatcher()
    mail := &slowMailer{release: make(chan struct{}), sent: make(chan string, 1)}
    notifier := &q.BookingNotifier{Dir: t.TempDir(), Origin: "test", Users: oneUser{}, Mailer: mail}
    d.Handle(q.TableBookings, notifier.Handle)
    s := newBookings(t, repository.NewMemoryBookingRepo(), d)

    done := make(chan error, 1)
    go func() {
        _, err := s.Create(ctx, nb(7, "A1"))
        done <- err
    }()
    select {
    case err := <-done:
        require.NoError(t, err)
    case <-time.After(time.Second):
        t.Fatal("Create waited for the confirmation email")
    }

    close(mail.release)
    notifier.Wait()
    assert.Equal(t, "kim@example.com", <-mail.sent)
}
