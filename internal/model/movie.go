package model

// Movie is an entry of the static catalog.  ReleaseDate uses the
// YYYY-MM-DD layout; a nil value means the movie is already released.
type Movie struct {
    ID          int64   `json:"id"`
    Slug        string  `json:"slug"`
    Title       string  `json:"title"`
    Description string  `json:"description"`
    Poster      string  `json:"poster"`
    ReleaseDate *string `json:"release_date,omitempty"`
}
