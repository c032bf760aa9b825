package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// BookingStore is the persistence contract of the bookings table.  The
// MySQL and in-memory repositories both satisfy it.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	ListAll(ctx context.Context) ([]model.Booking, error)
	GetByID(ctx context.Context, id string) (model.Booking, error)
	Delete(ctx context.Context, id string) error
}

// BookingRepo stores bookings in MySQL.  Seat codes are kept as a JSON
// array in the seats column.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, schedule_id, movie_id, show_date, seats, user_id, movie_title, theater, show_time, total_price, created_at`

// Create inserts b.  ID and CreatedAt must already be set by the caller.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return fmt.Errorf("encode seats: %w", err)
	}
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		b.ID, b.ScheduleID, b.MovieID, b.Date, string(seats), b.UserID,
		nullString(b.MovieTitle), nullString(b.Theater), nullString(b.Time), nullInt(b.TotalPrice),
		b.CreatedAt.UTC())
	return err
}

// ListAll returns every booking, oldest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID returns the booking with id or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	return b, nil
}

// Delete removes the booking with id.  Deleting a missing id returns
// ErrNotFound.
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM bookings WHERE id = ?`, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (model.Booking, error) {
	var (
		b          model.Booking
		seats      []byte
		title      sql.NullString
		theater    sql.NullString
		showTime   sql.NullString
		totalPrice sql.NullInt64
	)
	if err := s.Scan(&b.ID, &b.ScheduleID, &b.MovieID, &b.Date, &seats, &b.UserID,
		&title, &theater, &showTime, &totalPrice, &b.CreatedAt); err != nil {
		return model.Booking{}, err
	}
	if err := json.Unmarshal(seats, &b.Seats); err != nil {
		return model.Booking{}, fmt.Errorf("decode seats of booking %s: %w", b.ID, err)
	}
	if b.Seats == nil {
		b.Seats = []string{}
	}
	b.MovieTitle = stringPtr(title)
	b.Theater = stringPtr(theater)
	b.Time = stringPtr(showTime)
	if totalPrice.Valid {
		v := totalPrice.Int64
		b.TotalPrice = &v
	}
	return b, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func deleteByID(ctx context.Context, db *sql.DB, q, id string) error {
	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicate reports a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
