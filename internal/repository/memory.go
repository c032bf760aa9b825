package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// memTable is a mutex guarded slice keyed by string id.  It backs the
// in-memory stores used when no database is configured and in tests.
type memTable[T any] struct {
	mu   sync.Mutex
	rows []T
	key  func(T) string
}

func (t *memTable[T]) insert(v T) error {
	return t.insertUnless(v, func(T) bool { return false })
}

// insertUnless appends v unless a row with the same key exists or clash
// reports true for an existing row.
func (t *memTable[T]) insertUnless(v T, clash func(T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.rows {
		if t.key(r) == t.key(v) || clash(r) {
			return ErrConflict
		}
	}
	t.rows = append(t.rows, v)
	return nil
}

func (t *memTable[T]) list() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *memTable[T]) get(id string) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.rows {
		if t.key(r) == id {
			return r, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

func (t *memTable[T]) delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, r := range t.rows {
		if t.key(r) == id {
			t.rows = append(t.rows[:i:i], t.rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// MemoryBookingRepo is an in-memory BookingStore.
type MemoryBookingRepo struct{ t memTable[model.Booking] }

func NewMemoryBookingRepo(seed ...model.Booking) *MemoryBookingRepo {
	r := &MemoryBookingRepo{t: memTable[model.Booking]{key: func(b model.Booking) string { return b.ID }}}
	for _, b := range seed {
		_ = r.t.insert(cloneBooking(b))
	}
	return r
}

func (r *MemoryBookingRepo) Create(_ context.Context, b *model.Booking) error {
	return r.t.insert(cloneBooking(*b))
}

func (r *MemoryBookingRepo) ListAll(context.Context) ([]model.Booking, error) {
	rows := r.t.list()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows, nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (model.Booking, error) {
	return r.t.get(id)
}

func (r *MemoryBookingRepo) Delete(_ context.Context, id string) error { return r.t.delete(id) }

func cloneBooking(b model.Booking) model.Booking {
	b.Seats = append([]string(nil), b.Seats...)
	return b
}

// MemoryLikeRepo is an in-memory LikeStore enforcing one like per user
// and movie.
type MemoryLikeRepo struct{ t memTable[model.Like] }

func NewMemoryLikeRepo() *MemoryLikeRepo {
	return &MemoryLikeRepo{t: memTable[model.Like]{key: func(l model.Like) string { return l.ID }}}
}

func (r *MemoryLikeRepo) Create(_ context.Context, l *model.Like) error {
	return r.t.insertUnless(*l, func(x model.Like) bool {
		return x.MovieID == l.MovieID && x.UserID == l.UserID
	})
}

func (r *MemoryLikeRepo) ListAll(context.Context) ([]model.Like, error) { return r.t.list(), nil }

func (r *MemoryLikeRepo) Delete(_ context.Context, id string) error { return r.t.delete(id) }

// MemoryCommentRepo is an in-memory CommentStore.
type MemoryCommentRepo struct{ t memTable[model.Comment] }

func NewMemoryCommentRepo() *MemoryCommentRepo {
	return &MemoryCommentRepo{t: memTable[model.Comment]{key: func(c model.Comment) string { return c.ID }}}
}

func (r *MemoryCommentRepo) Create(_ context.Context, c *model.Comment) error { return r.t.insert(*c) }

// ListAll returns every comment, newest first.
func (r *MemoryCommentRepo) ListAll(context.Context) ([]model.Comment, error) {
	rows := r.t.list()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (r *MemoryCommentRepo) GetByID(_ context.Context, id string) (model.Comment, error) {
	return r.t.get(id)
}

func (r *MemoryCommentRepo) Delete(_ context.Context, id string) error { return r.t.delete(id) }

// MemoryUserRepo is an in-memory UserStore.
type MemoryUserRepo struct {
	mu     sync.Mutex
	users  []model.User
	nextID uint64
}

func NewMemoryUserRepo() *MemoryUserRepo { return &MemoryUserRepo{} }

func (r *MemoryUserRepo) Create(_ context.Context, email, password, role string, cost int) (uint64, error) {
	email = normalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return 0, ErrEmailExists
		}
	}
	r.nextID++
	now := time.Now().UTC()
	r.users = append(r.users, model.User{
		ID: r.nextID, Email: email, PasswordHash: hash, Role: role,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	return r.nextID, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = normalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (r *MemoryUserRepo) GetOrCreateByEmail(ctx context.Context, email string, cost int) (model.User, error) {
	return getOrCreate(ctx, r, email, cost)
}

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

// MemoryTokenRepo is an in-memory TokenStore.
type MemoryTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*memToken
}

func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{tokens: make(map[string]*memToken)}
}

func (r *MemoryTokenRepo) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (r *MemoryTokenRepo) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.revoked || time.Now().UTC().After(t.exp) {
		return 0, ErrNotFound
	}
	return t.userID, nil
}

func (r *MemoryTokenRepo) Rotate(_ context.Context, oldHash string, userID uint64, newHash string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[oldHash]
	if !ok || t.revoked || t.userID != userID {
		return ErrNotFound
	}
	t.revoked = true
	r.tokens[newHash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (r *MemoryTokenRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, t := range r.tokens {
		if t.exp.Before(before) {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (r *MemoryTokenRepo) RevokeByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok {
		t.revoked = true
	}
	return nil
}

func (r *MemoryTokenRepo) RevokeAllForUser(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}
