package model

import "time"

// Like is a user's like on a movie (likes table).
type Like struct {
    ID        string    `json:"id"`         // likes.id
    MovieID   int64     `json:"movie_id"`   // likes.movie_id
    UserID    uint64    `json:"user_id"`    // likes.user_id
    CreatedAt time.Time `json:"created_at"` // likes.created_at
}

// Comment is a short text left by a user on a movie (comments table).
type Comment struct {
    ID        string    `json:"id"`
    MovieID   int64     `json:"movie_id"`
    UserID    uint64    `json:"user_id"`
    UserName  *string   `json:"user_name,omitempty"`
    Content   string    `json:"content"`
    CreatedAt time.Time `json:"created_at"`
}
