// Package catalog holds the static movie list and the release-date rules
// applied to it.  The catalog never changes at runtime.
package catalog

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// DateLayout is the layout of release dates and show dates.
const DateLayout = "2006-01-02"

func strptr(s string) *string { return &s }

var movies = []model.Movie{
	{ID: 1, Title: "Avatar: Fire and Ash", Poster: "/images/posters/movie_1_1.jpg", Description: "2025 ‧ Action/Fantasy ‧ 3h 17m", ReleaseDate: strptr("2025-03-15")},
	{ID: 2, Title: "Zootopia 2", Poster: "/images/posters/movie_2_1.webp", Description: "2025 ‧ Family/Comedy ‧ 1h 50m", ReleaseDate: strptr("2025-04-20")},
	{ID: 3, Title: "Stranger Things Season 5", Poster: "/images/posters/movie_3_1.jpg", Description: "2016 ‧ Horror ‧ 5 seasons", ReleaseDate: strptr("2024-01-01")},
	{ID: 4, Title: "Avengers: Doomsday", Poster: "/images/posters/movie_4_1.jpg", Description: "2026 ‧ Sci-fi/Action", ReleaseDate: strptr("2026-05-01")},
	{ID: 5, Title: "Spider-Man: Brand New Day", Poster: "/images/posters/movie_5_1.jpg", Description: "2026 ‧ Sci-fi/Action", ReleaseDate: strptr("2026-07-15")},
	{ID: 6, Title: "The SpongeBob Movie: Search for SquarePants", Poster: "/images/posters/movie_6_1.jpg", Description: "2025 ‧ Family/Adventure ‧ 1h 28m", ReleaseDate: strptr("2025-02-10")},
	{ID: 7, Title: "Movie 7", Poster: "/images/posters/movie_7_1.webp", Description: "Movie 7 description", ReleaseDate: strptr("2025-06-01")},
	{ID: 8, Title: "Movie 8", Poster: "/images/posters/movie_8_1.jpg", Description: "Movie 8 description", ReleaseDate: strptr("2025-08-20")},
}

func init() {
	for i := range movies {
		movies[i].Slug = slug.Make(movies[i].Title)
	}
}

// Catalog answers movie lookups relative to a clock.  The clock and the
// location decide what "today" is for release checks and date options.
type Catalog struct {
	movies []model.Movie
	now    func() time.Time
	loc    *time.Location
}

// New returns a catalog over the built-in movie list.  A nil now uses
// time.Now and a nil loc uses UTC.
func New(now func() time.Time, loc *time.Location) *Catalog {
	return NewWithMovies(movies, now, loc)
}

// NewWithMovies returns a catalog over an explicit movie list.  Movies
// without a slug get one derived from their title.
func NewWithMovies(list []model.Movie, now func() time.Time, loc *time.Location) *Catalog {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	cp := make([]model.Movie, len(list))
	copy(cp, list)
	for i := range cp {
		if cp[i].Slug == "" {
			cp[i].Slug = slug.Make(cp[i].Title)
		}
	}
	return &Catalog{movies: cp, now: now, loc: loc}
}

// Today returns the current time in the catalog location.
func (c *Catalog) Today() time.Time { return c.now().In(c.loc) }

// Movies returns a copy of the movie list in catalog order.
func (c *Catalog) Movies() []model.Movie {
	out := make([]model.Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// MovieByID returns the movie with the given id.
func (c *Catalog) MovieByID(id int64) (model.Movie, bool) {
	for _, m := range c.movies {
		if m.ID == id {
			return m, true
		}
	}
	return model.Movie{}, false
}

// MovieBySlug returns the movie with the given slug.
func (c *Catalog) MovieBySlug(s string) (model.Movie, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range c.movies {
		if m.Slug == s {
			return m, true
		}
	}
	return model.Movie{}, false
}

// Lookup resolves a path parameter that is either a numeric id or a slug.
func (c *Catalog) Lookup(ref string) (model.Movie, bool) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return c.MovieByID(id)
	}
	return c.MovieBySlug(ref)
}

// Released reports whether m is released as of today.
func (c *Catalog) Released(m model.Movie) bool { return IsReleased(m.ReleaseDate, c.Today()) }

// DaysUntil returns the number of days until m is released.
func (c *Catalog) DaysUntil(m model.Movie) int { return DaysUntilRelease(m.ReleaseDate, c.Today()) }

// DateOptions returns the selectable show dates starting today.
func (c *Catalog) DateOptions() []string { return DateOptions(c.Today(), DefaultDateWindow) }

// IsReleased reports whether releaseDate is on or before today.  Only
// the calendar day of today counts.  A missing date means released; an
// unparsable one means not released.
func IsReleased(releaseDate *string, today time.Time) bool {
	if releaseDate == nil || strings.TrimSpace(*releaseDate) == "" {
		return true
	}
	release, err := time.Parse(DateLayout, strings.TrimSpace(*releaseDate))
	if err != nil {
		return false
	}
	return !release.After(dayOf(today))
}

// DaysUntilRelease returns the whole days left until releaseDate, rounded
// up.  Released, missing or unparsable dates give 0.
func DaysUntilRelease(releaseDate *string, today time.Time) int {
	if releaseDate == nil || strings.TrimSpace(*releaseDate) == "" {
		return 0
	}
	release, err := time.Parse(DateLayout, strings.TrimSpace(*releaseDate))
	if err != nil {
		return 0
	}
	days := int(math.Ceil(release.Sub(dayOf(today)).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// dayOf maps t to midnight UTC of its own calendar day so that it can be
// compared with dates parsed by time.Parse.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
