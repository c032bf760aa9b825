package queue

import (
    "context"
    "errors"
    "sync"
)

// Handler consumes one change event.
type Handler func(ctx context.Context, ev ChangeEvent) error

// Publisher sends a change event to every instance, including this one.
type Publisher interface {
    Publish(ctx context.Context, ev ChangeEvent) error
}

// Dispatcher routes change events to the handlers registered for their
// table.  It also serves as the Publisher when no broker is configured,
// delivering events to this instance only.
type Dispatcher struct {
    mu     sync.RWMutex
    tables map[string][]Handler
    all    []Handler
}

func NewDispatcher() *Dispatcher {
    return &Dispatcher{tables: make(map[string][]Handler)}
}

// Handle registers h for events of table.
func (d *Dispatcher) Handle(table string, h Handler) {
    d.mu.Lock()
    defer d.mu.Unlock()
    d.tables[table] = append(d.tables[table], h)
}

// HandleAll registers h for events of every table.
func (d *Dispatcher) HandleAll(h Handler) {
    d.mu.Lock()
    defer d.mu.Unlock()
    d.all = append(d.all, h)
}

// Dispatch runs every matching handler.  All handlers run even if one
// fails; the failures are joined.
func (d *Dispatcher) Dispatch(ctx context.Context, ev ChangeEvent) error {
    d.mu.RLock()
    hs := make([]Handler, 0, len(d.tables[ev.Table])+len(d.all))
    hs = append(hs, d.tables[ev.Table]...)
    hs = append(hs, d.all...)
    d.mu.RUnlock()

    var errs []error
    for _, h := range hs {
        if err := h(ctx, ev); err != nil {
            errs = append(errs, err)
        }
    }
    return errors.Join(errs...)
}

// Publish implements Publisher by dispatching in-process.
func (d *Dispatcher) Publish(ctx context.Context, ev ChangeEvent) error {
    return d.Dispatch(ctx, ev)
}
