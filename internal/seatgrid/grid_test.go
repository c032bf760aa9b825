package seatgrid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

var key = model.ScheduleKey{ScheduleID: 1, MovieID: 3, Date: "2025-05-10"}

type fakeBooker struct {
	got  []model.NewBooking
	fail error
}

func (f *fakeBooker) Create(_ context.Context, nb model.NewBooking) (*model.Booking, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.got = append(f.got, nb)
	return &model.Booking{ID: "b-1", ScheduleID: nb.ScheduleID, MovieID: nb.MovieID, Date: nb.Date, Seats: nb.Seats, UserID: nb.UserID}, nil
}

func TestNewGridLayout(t *testing.T) {
	g := New(key, nil)
	assert.Equal(t, 56, g.Size())
	rows := g.Rows()
	require.Len(t, rows, 7)
	assert.Equal(t, "A1", rows[0][0].Code())
	assert.Equal(t, "G8", rows[6][7].Code())
	for _, s := range g.Seats() {
		assert.Equal(t, model.SeatAvailable, s.State())
	}
}

func TestSelectTwoSeatsPrice(t *testing.T) {
	g := New(key, nil)
	_, err := g.Toggle("A1")
	require.NoError(t, err)
	_, err = g.Toggle("B2")
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "B2"}, g.Selected())
	assert.Equal(t, int64(24000), g.TotalPrice())
}

func TestToggleTwiceClearsSelection(t *testing.T) {
	g := New(key, nil)
	st, err := g.Toggle("c5")
	require.NoError(t, err)
	assert.Equal(t, model.SeatSelected, st)

	st, err = g.Toggle("C5")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, st)
	assert.Empty(t, g.Selected())
	assert.Equal(t, int64(0), g.TotalPrice())
}

func TestBookedSeatNeverSelected(t *testing.T) {
	bookings := []model.Booking{
		{ID: "x", ScheduleID: 1, MovieID: 3, Date: "2025-05-10", Seats: []string{"A1", "D4"}},
		// same slot id, other movie: must not block seats
		{ID: "y", ScheduleID: 1, MovieID: 4, Date: "2025-05-10", Seats: []string{"A2"}},
	}
	g := New(key, bookings)

	for _, s := range g.Seats() {
		code := s.Code()
		st, err := g.Toggle(code)
		if code == "A1" || code == "D4" {
			assert.ErrorIs(t, err, ErrSeatBooked)
			assert.Equal(t, model.SeatBooked, st)
		} else {
			assert.NoError(t, err)
		}
	}
	assert.NotContains(t, g.Selected(), "A1")
	assert.NotContains(t, g.Selected(), "D4")
	assert.Len(t, g.Selected(), 54)
	assert.Equal(t, []string{"A1", "D4"}, g.BookedCodes())

	assert.ErrorIs(t, g.Select("D4"), ErrSeatBooked)
}

func TestUnknownSeat(t *testing.T) {
	g := New(key, nil)
	_, err := g.Toggle("H1")
	assert.ErrorIs(t, err, ErrUnknownSeat)
	_, err = g.Toggle("A9")
	assert.ErrorIs(t, err, ErrUnknownSeat)
	_, err = g.State("")
	assert.ErrorIs(t, err, ErrUnknownSeat)
}

func TestApplyBookingsDropsSelection(t *testing.T) {
	g := New(key, nil)
	require.NoError(t, g.Select("A1", "A2"))

	g.ApplyBookings([]model.Booking{{ScheduleID: 1, MovieID: 3, Date: "2025-05-10", Seats: []string{"A2"}}})

	assert.Equal(t, []string{"A1"}, g.Selected())
	st, _ := g.State("A2")
	assert.Equal(t, model.SeatBooked, st)
}

func TestBuyRequiresSelectionAndUser(t *testing.T) {
	g := New(key, nil)
	assert.ErrorIs(t, g.Buy(&model.User{ID: 7}), ErrNoSeatsSelected)

	require.NoError(t, g.Select("E3"))
	assert.ErrorIs(t, g.Buy(nil), ErrSignInRequired)
	assert.True(t, g.PendingPurchase())

	resumed, err := g.Resume(&model.User{ID: 7})
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.False(t, g.PendingPurchase())

	resumed, err = g.Resume(&model.User{ID: 7})
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestConfirmBooksSeatsAndClearsSelection(t *testing.T) {
	g := New(key, nil)
	require.NoError(t, g.Select("A1", "B2"))
	require.NoError(t, g.Buy(&model.User{ID: 42}))

	fb := &fakeBooker{}
	b, err := g.Confirm(context.Background(), fb, Details{MovieTitle: "Zootopia 2", Theater: "1 Theater", Time: "10:00"})
	require.NoError(t, err)
	require.NotNil(t, b)

	require.Len(t, fb.got, 1)
	assert.Equal(t, []string{"A1", "B2"}, fb.got[0].Seats)
	assert.Equal(t, int64(24000), fb.got[0].TotalPrice)
	assert.Equal(t, uint64(42), fb.got[0].UserID)
	assert.Equal(t, "2025-05-10", fb.got[0].Date)

	assert.Empty(t, g.Selected())
	for _, code := range []string{"A1", "B2"} {
		st, _ := g.State(code)
		assert.Equal(t, model.SeatBooked, st)
	}
}

func TestConfirmFailureLeavesGridUnchanged(t *testing.T) {
	g := New(key, nil)
	require.NoError(t, g.Select("F6"))
	require.NoError(t, g.Buy(&model.User{ID: 1}))

	boom := errors.New("insert failed")
	_, err := g.Confirm(context.Background(), &fakeBooker{fail: boom}, Details{})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"F6"}, g.Selected())
	st, _ := g.State("F6")
	assert.Equal(t, model.SeatSelected, st)
}

func TestConfirmWithoutBuy(t *testing.T) {
	g := New(key, nil)
	require.NoError(t, g.Select("A1"))
	_, err := g.Confirm(context.Background(), &fakeBooker{}, Details{})
	assert.ErrorIs(t, err, ErrSignInRequired)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "A1", NormalizeCode(" a01 "))
	assert.Equal(t, "G8", NormalizeCode("G8"))
	assert.Equal(t, "1A", NormalizeCode("1a"))
}
