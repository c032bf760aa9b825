package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// CommentStore is the persistence contract of the comments table.
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	ListAll(ctx context.Context) ([]model.Comment, error)
	GetByID(ctx context.Context, id string) (model.Comment, error)
	Delete(ctx context.Context, id string) error
}

// CommentRepo stores movie comments in MySQL.  The author's display name
// is copied into user_name when the comment is written.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, movie_id, user_id, user_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.MovieID, c.UserID, nullString(c.UserName), c.Content, c.CreatedAt.UTC())
	return err
}

// ListAll returns every comment, newest first.
func (r *CommentRepo) ListAll(ctx context.Context) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, movie_id, user_id, user_name, content, created_at FROM comments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepo) GetByID(ctx context.Context, id string) (model.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, movie_id, user_id, user_name, content, created_at FROM comments WHERE id = ? LIMIT 1`, id)
	c, err := scanComment(row)
	if err != nil {
		return model.Comment{}, notFound(err)
	}
	return c, nil
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM comments WHERE id = ?`, id)
}

func scanComment(s scanner) (model.Comment, error) {
	var (
		c    model.Comment
		name sql.NullString
	)
	if err := s.Scan(&c.ID, &c.MovieID, &c.UserID, &name, &c.Content, &c.CreatedAt); err != nil {
		return model.Comment{}, err
	}
	c.UserName = stringPtr(name)
	return c, nil
}
