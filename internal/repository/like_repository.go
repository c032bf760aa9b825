package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// LikeStore is the persistence contract of the likes table.
type LikeStore interface {
	Create(ctx context.Context, l *model.Like) error
	ListAll(ctx context.Context) ([]model.Like, error)
	Delete(ctx context.Context, id string) error
}

// LikeRepo stores movie likes in MySQL.  A (movie_id, user_id) pair is
// unique; inserting it twice returns ErrConflict.
type LikeRepo struct {
	db *sql.DB
}

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{db: db} }

func (r *LikeRepo) Create(ctx context.Context, l *model.Like) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (id, movie_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		l.ID, l.MovieID, l.UserID, l.CreatedAt.UTC())
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// ListAll returns every like, oldest first.
func (r *LikeRepo) ListAll(ctx context.Context) ([]model.Like, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, movie_id, user_id, created_at FROM likes ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Like, 0)
	for rows.Next() {
		var l model.Like
		if err := rows.Scan(&l.ID, &l.MovieID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LikeRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM likes WHERE id = ?`, id)
}
