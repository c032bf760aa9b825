package service

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "strings"
    "time"
    "unicode/utf8"

    "github.com/google/uuid"

    "github.com/iliyamo/cinema-ticket-booking/internal/livesync"
    "github.com/iliyamo/cinema-ticket-booking/internal/model"
    q "github.com/iliyamo/cinema-ticket-booking/internal/queue"
    "github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// DefaultCommentLimit is how many comments a movie page shows.
const DefaultCommentLimit = 5

// MaxCommentLength bounds a comment, in runes.
const MaxCommentLength = 500

var ErrInvalidComment = errors.New("comment must be 1-500 characters")

// CommentService keeps the cached comments, newest first.
type CommentService struct {
    repo  repository.CommentStore
    m     mirror[model.Comment]
    now   func() time.Time
    newID func() string
}

func NewCommentService(repo repository.CommentStore, pub q.Publisher, origin string, logger *slog.Logger) *CommentService {
    return &CommentService{
        repo:  repo,
        m:     newMirror(q.TableComments, origin, func(c model.Comment) string { return c.ID }, livesync.Prepend, pub, logger),
        now:   time.Now,
        newID: uuid.NewString,
    }
}

func (s *CommentService) Load(ctx context.Context) error { return s.m.load(ctx, s.repo.ListAll) }

// Add writes a comment by author on movieID.
func (s *CommentService) Add(ctx context.Context, movieID int64, author model.User, content string) (*model.Comment, error) {
    content = strings.TrimSpace(content)
    if content == "" || utf8.RuneCountInString(content) > MaxCommentLength {
        return nil, ErrInvalidComment
    }
    name := author.DisplayName()
    c := model.Comment{
        ID:        s.newID(),
        MovieID:   movieID,
        UserID:    author.ID,
        UserName:  &name,
        Content:   content,
        CreatedAt: s.now().UTC().Truncate(time.Second),
    }
    if err := s.repo.Create(ctx, &c); err != nil {
        s.m.logger.Error("add comment failed", "movie_id", movieID, "user_id", author.ID, "error", err)
        return nil, fmt.Errorf("add comment: %w", err)
    }
    s.m.inserted(ctx, c)
    return &c, nil
}

// Delete removes comment id.  The author may delete it; so may an admin.
func (s *CommentService) Delete(ctx context.Context, id string, userID uint64, admin bool) error {
    c, ok := s.m.items.Get(id)
    if !ok {
        var err error
        if c, err = s.repo.GetByID(ctx, id); err != nil {
            return fmt.Errorf("delete comment %s: %w", id, err)
        }
    }
    if c.UserID != userID && !admin {
        return fmt.Errorf("delete comment %s: %w", id, repository.ErrForbidden)
    }
    if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
        s.m.logger.Error("delete comment failed", "comment_id", id, "error", err)
        return fmt.Errorf("delete comment %s: %w", id, err)
    }
    s.m.deleted(ctx, id)
    return nil
}

// MovieComments returns the latest limit comments of movieID, newest
// first.  A limit <= 0 uses DefaultCommentLimit.
func (s *CommentService) MovieComments(movieID int64, limit int) []model.Comment {
    if limit <= 0 {
        limit = DefaultCommentLimit
    }
    out := s.m.items.Filter(func(c model.Comment) bool { return c.MovieID == movieID })
    if len(out) > limit {
        out = out[:limit]
    }
    return out
}

// Count returns the number of comments on movieID.
func (s *CommentService) Count(movieID int64) int {
    return s.m.items.Count(func(c model.Comment) bool { return c.MovieID == movieID })
}

func (s *CommentService) ApplyChange(_ context.Context, ev q.ChangeEvent) error { return s.m.apply(ev) }
