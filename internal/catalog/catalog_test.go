package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

func sp(s string) *string { return &s }

func TestIsReleased(t *testing.T) {
	today := time.Date(2025, 5, 10, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		date *string
		want bool
	}{
		{"missing date", nil, true},
		{"empty date", sp(""), true},
		{"past", sp("2025-05-09"), true},
		{"today", sp("2025-05-10"), true},
		{"tomorrow", sp("2025-05-11"), false},
		{"far future", sp("2030-01-01"), false},
		{"garbage", sp("soon"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsReleased(tc.date, today))
		})
	}
}

func TestIsReleasedUsesCallerCalendarDay(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	// 2025-05-10 20:00 UTC is already 2025-05-11 in Seoul.
	now := time.Date(2025, 5, 10, 20, 0, 0, 0, time.UTC)
	assert.False(t, IsReleased(sp("2025-05-11"), now))
	assert.True(t, IsReleased(sp("2025-05-11"), now.In(seoul)))
}

func TestDaysUntilRelease(t *testing.T) {
	today := time.Date(2025, 5, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysUntilRelease(nil, today))
	assert.Equal(t, 0, DaysUntilRelease(sp("2025-05-01"), today))
	assert.Equal(t, 0, DaysUntilRelease(sp("2025-05-10"), today))
	assert.Equal(t, 1, DaysUntilRelease(sp("2025-05-11"), today))
	assert.Equal(t, 22, DaysUntilRelease(sp("2025-06-01"), today))
}

func TestCatalogLookup(t *testing.T) {
	c := New(func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }, nil)

	require.Len(t, c.Movies(), 8)

	m, ok := c.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, "Zootopia 2", m.Title)
	assert.Equal(t, "zootopia-2", m.Slug)

	bySlug, ok := c.Lookup("zootopia-2")
	require.True(t, ok)
	assert.Equal(t, m, bySlug)

	_, ok = c.Lookup("99")
	assert.False(t, ok)

	avengers, _ := c.MovieByID(4)
	spider, _ := c.MovieByID(5)
	assert.True(t, c.Released(avengers))
	assert.False(t, c.Released(spider))
	assert.Equal(t, 44, c.DaysUntil(spider))
}

func TestDateOptions(t *testing.T) {
	today := time.Date(2025, 12, 29, 15, 0, 0, 0, time.UTC)
	got := DateOptions(today, DefaultDateWindow)
	assert.Equal(t, []string{
		"2025-12-29", "2025-12-30", "2025-12-31",
		"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-04",
	}, got)
	assert.Empty(t, DateOptions(today, 0))

	c := New(func() time.Time { return today }, nil)
	assert.True(t, c.ValidDate("2026-01-04"))
	assert.False(t, c.ValidDate("2026-01-05"))
	assert.False(t, c.ValidDate("2025-12-28"))
}

type fixedCounter map[model.ScheduleKey]int

func (f fixedCounter) BookedSeatsCount(k model.ScheduleKey) int { return f[k] }

func TestSchedulesAvailability(t *testing.T) {
	counter := fixedCounter{
		{ScheduleID: 1, MovieID: 3, Date: "2025-05-10"}: 11,
		{ScheduleID: 2, MovieID: 3, Date: "2025-05-10"}: 80,
		{ScheduleID: 1, MovieID: 4, Date: "2025-05-10"}: 5,
	}
	got := Schedules(3, "2025-05-10", counter)
	require.Len(t, got, 5)
	assert.Equal(t, "1 Theater", got[0].Theater)
	assert.Equal(t, "10:00", got[0].Time)
	assert.Equal(t, 56, got[0].TotalSeats)
	assert.Equal(t, 45, got[0].AvailableSeats)
	assert.Equal(t, 0, got[1].AvailableSeats)
	assert.Equal(t, 56, got[2].AvailableSeats)

	s, ok := Schedule(3, "2025-05-10", 5, nil)
	require.True(t, ok)
	assert.Equal(t, "21:30", s.Time)
	_, ok = Schedule(3, "2025-05-10", 6, nil)
	assert.False(t, ok)
}
