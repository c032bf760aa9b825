package service

import (
    "context"
    "fmt"
    "log/slog"

    "github.com/iliyamo/cinema-ticket-booking/internal/livesync"
    q "github.com/iliyamo/cinema-ticket-booking/internal/queue"
)

// mirror is the local copy of one synced table together with the change
// feed that keeps other instances' copies in step.
type mirror[T any] struct {
    table  string
    origin string
    items  *livesync.Collection[T]
    pub    q.Publisher
    logger *slog.Logger
}

func newMirror[T any](table, origin string, key func(T) string, order livesync.Order, pub q.Publisher, logger *slog.Logger) mirror[T] {
    if logger == nil {
        logger = slog.Default()
    }
    return mirror[T]{
        table:  table,
        origin: origin,
        items:  livesync.New(key, order),
        pub:    pub,
        logger: logger.With("table", table),
    }
}

// inserted records a successful remote insert locally and announces it.
func (m *mirror[T]) inserted(ctx context.Context, rec T) {
    m.items.Upsert(rec)
    if m.pub == nil {
        return
    }
    ev, err := q.NewInsertEvent(m.table, m.origin, rec)
    if err == nil {
        err = m.pub.Publish(ctx, ev)
    }
    if err != nil {
        m.logger.Warn("publish insert failed", "error", err)
    }
}

// deleted records a successful remote delete locally and announces it.
func (m *mirror[T]) deleted(ctx context.Context, id string) {
    m.items.Remove(id)
    m.announceDelete(ctx, id)
}

func (m *mirror[T]) announceDelete(ctx context.Context, id string) {
    if m.pub == nil {
        return
    }
    if err := m.pub.Publish(ctx, q.NewDeleteEvent(m.table, m.origin, id)); err != nil {
        m.logger.Warn("publish delete failed", "id", id, "error", err)
    }
}

// apply merges a change event received from the feed.
func (m *mirror[T]) apply(ev q.ChangeEvent) error {
    if ev.Table != m.table {
        return nil
    }
    switch ev.Type {
    case q.TypeInsert:
        var rec T
        if err := ev.Decode(&rec); err != nil {
            return err
        }
        m.items.Apply(livesync.Change[T]{Type: livesync.Insert, New: rec})
    case q.TypeDelete:
        m.items.Apply(livesync.Change[T]{Type: livesync.Delete, OldKey: ev.OldID})
    default:
        return fmt.Errorf("unknown change type %q on %s", ev.Type, ev.Table)
    }
    return nil
}

func (m *mirror[T]) load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
    if err := m.items.Load(ctx, fetch); err != nil {
        m.logger.Error("snapshot load failed", "error", err)
        return fmt.Errorf("load %s: %w", m.table, err)
    }
    m.logger.Debug("snapshot loaded", "rows", m.items.Len())
    return nil
}
