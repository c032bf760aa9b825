package queue

import (
    "context"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/cinema-ticket-booking/internal/model"
)

// BookingMailer sends the confirmation email of a booking.
type BookingMailer interface {
    SendBookingConfirmation(ctx context.Context, to string, b model.Booking) error
}

// UserLookup resolves the booking owner's email address.
type UserLookup interface {
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// DefaultMailTimeout bounds one confirmation email send.
const DefaultMailTimeout = 30 * time.Second

// BookingNotifier reacts to bookings written by this instance: it appends
// one line per booking to <Dir>/booking.log and, when a mailer is set,
// emails the confirmation to the owner.  Events from other instances are
// ignored so each booking is announced once.  Emails are sent in the
// background; Handle never waits on SMTP.
type BookingNotifier struct {
    Dir         string
    Origin      string
    Users       UserLookup
    Mailer      BookingMailer
    Logger      *slog.Logger
    MailTimeout time.Duration

    mu      sync.Mutex
    sending sync.WaitGroup
}

// Handle is a Handler for TableBookings.
func (n *BookingNotifier) Handle(ctx context.Context, ev ChangeEvent) error {
    if ev.Table != TableBookings || ev.Type != TypeInsert || ev.Origin != n.Origin {
        return nil
    }
    var b model.Booking
    if err := ev.Decode(&b); err != nil {
        return err
    }
    if err := n.appendLine(FormatBookingLine(b, ev.At)); err != nil {
        return err
    }
    if n.Mailer == nil || n.Users == nil {
        return nil
    }
    timeout := n.MailTimeout
    if timeout <= 0 {
        timeout = DefaultMailTimeout
    }
    mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
    n.sending.Add(1)
    go func() {
        defer n.sending.Done()
        defer cancel()
        n.sendConfirmation(mailCtx, b)
    }()
    return nil
}

// Wait blocks until every pending confirmation email has been attempted.
func (n *BookingNotifier) Wait() { n.sending.Wait() }

func (n *BookingNotifier) sendConfirmation(ctx context.Context, b model.Booking) {
    u, err := n.Users.GetByID(ctx, b.UserID)
    if err != nil {
        n.logger().Warn("confirmation email skipped", "booking_id", b.ID, "error", err)
        return
    }
    if err := n.Mailer.SendBookingConfirmation(ctx, u.Email, b); err != nil {
        n.logger().Error("confirmation email failed", "booking_id", b.ID, "error", err)
    }
}

func (n *BookingNotifier) appendLine(line string) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    dir := n.Dir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func (n *BookingNotifier) logger() *slog.Logger {
    if n.Logger != nil {
        return n.Logger
    }
    return slog.Default()
}

// FormatBookingLine renders the booking.log entry of b.
func FormatBookingLine(b model.Booking, at time.Time) string {
    total := int64(0)
    if b.TotalPrice != nil {
        total = *b.TotalPrice
    }
    return fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | user_id=%d | movie_id=%d | movie=%q | date=%s | schedule_id=%d | theater=%q | time=%s | total=%d | seats=[%s]\n",
        at.UTC().Format(time.RFC3339), b.ID, b.UserID, b.MovieID, deref(b.MovieTitle), b.Date,
        b.ScheduleID, deref(b.Theater), deref(b.Time), total, strings.Join(b.Seats, ","))
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
