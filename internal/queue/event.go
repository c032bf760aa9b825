// Package queue defines the change events exchanged between instances and
// the plumbing that delivers them: the RabbitMQ fan-out consumer, the
// in-process dispatcher and the booking confirmation notifier.
package queue

import (
    "encoding/json"
    "fmt"
    "time"
)

// Table names carried in ChangeEvent.Table.
const (
    TableBookings = "bookings"
    TableLikes    = "likes"
    TableComments = "comments"
)

// Change types carried in ChangeEvent.Type.
const (
    TypeInsert = "INSERT"
    TypeDelete = "DELETE"
)

// ChangesExchange is the fan-out exchange every instance publishes row
// changes to.  Each instance consumes it through its own exclusive queue.
const ChangesExchange = "table.changes"

// ChangeEvent is a row-level change of one of the synced tables.  For an
// INSERT, Record holds the full row as JSON.  For a DELETE only OldID is
// set.  Origin identifies the instance that performed the write.
type ChangeEvent struct {
    Table  string          `json:"table"`
    Type   string          `json:"type"`
    Record json.RawMessage `json:"record,omitempty"`
    OldID  string          `json:"old_id,omitempty"`
    Origin string          `json:"origin"`
    At     time.Time       `json:"at"`
}

// NewInsertEvent encodes record as an INSERT on table.
func NewInsertEvent(table, origin string, record any) (ChangeEvent, error) {
    body, err := json.Marshal(record)
    if err != nil {
        return ChangeEvent{}, fmt.Errorf("encode %s record: %w", table, err)
    }
    return ChangeEvent{
        Table:  table,
        Type:   TypeInsert,
        Record: body,
        Origin: origin,
        At:     time.Now().UTC(),
    }, nil
}

// NewDeleteEvent builds a DELETE of id on table.
func NewDeleteEvent(table, origin, id string) ChangeEvent {
    return ChangeEvent{
        Table:  table,
        Type:   TypeDelete,
        OldID:  id,
        Origin: origin,
        At:     time.Now().UTC(),
    }
}

// Decode unmarshals the INSERT record into dst.
func (e ChangeEvent) Decode(dst any) error {
    if e.Type != TypeInsert {
        return fmt.Errorf("decode %s event of %s: no record", e.Type, e.Table)
    }
    if err := json.Unmarshal(e.Record, dst); err != nil {
        return fmt.Errorf("decode %s record: %w", e.Table, err)
    }
    return nil
}
