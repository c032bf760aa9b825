package service

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/cinema-ticket-booking/internal/livesync"
    "github.com/iliyamo/cinema-ticket-booking/internal/model"
    q "github.com/iliyamo/cinema-ticket-booking/internal/queue"
    "github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// LikeService keeps the cached likes and toggles a user's like on a movie.
type LikeService struct {
    repo  repository.LikeStore
    m     mirror[model.Like]
    now   func() time.Time
    newID func() string
}

func NewLikeService(repo repository.LikeStore, pub q.Publisher, origin string, logger *slog.Logger) *LikeService {
    return &LikeService{
        repo:  repo,
        m:     newMirror(q.TableLikes, origin, func(l model.Like) string { return l.ID }, livesync.Append, pub, logger),
        now:   time.Now,
        newID: uuid.NewString,
    }
}

func (s *LikeService) Load(ctx context.Context) error { return s.m.load(ctx, s.repo.ListAll) }

// Toggle likes movieID for userID, or removes the like if one exists.  It
// returns the resulting state.
func (s *LikeService) Toggle(ctx context.Context, movieID int64, userID uint64) (bool, error) {
    if l, ok := s.find(movieID, userID); ok {
        if err := s.repo.Delete(ctx, l.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
            s.m.logger.Error("unlike failed", "movie_id", movieID, "user_id", userID, "error", err)
            return true, fmt.Errorf("unlike movie %d: %w", movieID, err)
        }
        s.m.deleted(ctx, l.ID)
        return false, nil
    }

    l := model.Like{ID: s.newID(), MovieID: movieID, UserID: userID, CreatedAt: s.now().UTC().Truncate(time.Second)}
    if err := s.repo.Create(ctx, &l); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return s.adoptExisting(ctx, movieID, userID)
        }
        s.m.logger.Error("like failed", "movie_id", movieID, "user_id", userID, "error", err)
        return false, fmt.Errorf("like movie %d: %w", movieID, err)
    }
    s.m.inserted(ctx, l)
    return true, nil
}

// adoptExisting caches the like row another writer created for the pair,
// so the next Toggle takes the unlike path.
func (s *LikeService) adoptExisting(ctx context.Context, movieID int64, userID uint64) (bool, error) {
    all, err := s.repo.ListAll(ctx)
    if err != nil {
        s.m.logger.Error("like lookup failed", "movie_id", movieID, "user_id", userID, "error", err)
        return false, fmt.Errorf("like movie %d: %w", movieID, err)
    }
    for _, l := range all {
        if l.MovieID == movieID && l.UserID == userID {
            s.m.items.Upsert(l)
            return true, nil
        }
    }
    // removed again before the lookup
    return false, nil
}

// Count returns the number of likes of movieID.
func (s *LikeService) Count(movieID int64) int {
    return s.m.items.Count(func(l model.Like) bool { return l.MovieID == movieID })
}

// IsLiked reports whether userID likes movieID.
func (s *LikeService) IsLiked(movieID int64, userID uint64) bool {
    _, ok := s.find(movieID, userID)
    return ok
}

// UserLikes returns the ids of the movies userID likes, in like order.
func (s *LikeService) UserLikes(userID uint64) []int64 {
    out := []int64{}
    for _, l := range s.m.items.Filter(func(l model.Like) bool { return l.UserID == userID }) {
        out = append(out, l.MovieID)
    }
    return out
}

func (s *LikeService) ApplyChange(_ context.Context, ev q.ChangeEvent) error { return s.m.apply(ev) }

func (s *LikeService) find(movieID int64, userID uint64) (model.Like, bool) {
    return s.m.items.Find(func(l model.Like) bool { return l.MovieID == movieID && l.UserID == userID })
}
