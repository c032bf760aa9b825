// Package livesync keeps a local copy of a remote table in step with it.
//
// A Collection is loaded from a snapshot and then fed two kinds of
// updates: optimistic local writes made by this process, and change
// events received from the realtime channel.  Both paths go through the
// same idempotent operations (upsert by key, delete by key), so an event
// that echoes a local write is harmless.  There is no ordering between
// the two paths: a late INSERT event for a record that was deleted
// locally brings it back until the next snapshot.
//
// Local writes made while a snapshot is being fetched are journaled and
// replayed over that snapshot, so a resync never drops them.
package livesync

import (
	"context"
	"sync"
)

// ChangeType is the kind of row-level change carried by an event.
type ChangeType string

const (
	Insert ChangeType = "INSERT"
	Delete ChangeType = "DELETE"
)

// Change is a decoded row-level change.  New is set for inserts, OldKey
// for deletes.
type Change[T any] struct {
	Type   ChangeType
	New    T
	OldKey string
}

// Order decides where newly inserted records go.
type Order int

const (
	// Append keeps insertion order (oldest first).
	Append Order = iota
	// Prepend keeps the newest record first.
	Prepend
)

// Collection is a concurrency-safe cached copy of a remote table.
type Collection[T any] struct {
	mu     sync.RWMutex
	items  []T
	key    func(T) string
	order  Order
	loaded bool

	// journal holds the writes made while at least one Load is in flight.
	seq     uint64
	loading int
	journal []journaled[T]
}

type journaled[T any] struct {
	seq uint64
	ch  Change[T]
}

// New returns an empty collection keyed by key.
func New[T any](key func(T) string, order Order) *Collection[T] {
	return &Collection[T]{key: key, order: order}
}

// Load replaces the contents with the result of fetch.  Upserts and
// removes made while fetch runs are applied again on top of the snapshot.
// On error the previous contents are kept.
func (c *Collection[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	c.mu.Lock()
	c.loading++
	start := c.seq
	c.mu.Unlock()

	items, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		c.items = c.dedupe(items)
		c.loaded = true
		for _, j := range c.journal {
			if j.seq > start {
				c.applyLocked(j.ch)
			}
		}
	}
	c.loading--
	if c.loading == 0 {
		c.journal = nil
	}
	return err
}

// Replace swaps the contents for items.  Duplicate keys keep the first
// occurrence.
func (c *Collection[T]) Replace(items []T) {
	cp := c.dedupe(items)
	c.mu.Lock()
	c.items = cp
	c.loaded = true
	c.mu.Unlock()
}

func (c *Collection[T]) dedupe(items []T) []T {
	seen := make(map[string]bool, len(items))
	cp := make([]T, 0, len(items))
	for _, it := range items {
		k := c.key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		cp = append(cp, it)
	}
	return cp
}

// Loaded reports whether a snapshot has been applied.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Upsert inserts item, or replaces the record with the same key in place.
func (c *Collection[T]) Upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Change[T]{Type: Insert, New: item})
	c.upsertLocked(item)
}

// Remove deletes the record with key k and reports whether it existed.
func (c *Collection[T]) Remove(k string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(Change[T]{Type: Delete, OldKey: k})
	return c.removeLocked(k)
}

func (c *Collection[T]) record(ch Change[T]) {
	if c.loading == 0 {
		return
	}
	c.seq++
	c.journal = append(c.journal, journaled[T]{seq: c.seq, ch: ch})
}

func (c *Collection[T]) applyLocked(ch Change[T]) {
	switch ch.Type {
	case Insert:
		c.upsertLocked(ch.New)
	case Delete:
		c.removeLocked(ch.OldKey)
	}
}

func (c *Collection[T]) upsertLocked(item T) {
	k := c.key(item)
	for i := range c.items {
		if c.key(c.items[i]) == k {
			c.items[i] = item
			return
		}
	}
	if c.order == Prepend {
		c.items = append([]T{item}, c.items...)
		return
	}
	c.items = append(c.items, item)
}

func (c *Collection[T]) removeLocked(k string) bool {
	for i := range c.items {
		if c.key(c.items[i]) == k {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Apply merges a change event.
func (c *Collection[T]) Apply(ch Change[T]) {
	switch ch.Type {
	case Insert:
		c.Upsert(ch.New)
	case Delete:
		c.Remove(ch.OldKey)
	}
}

// Get returns the record with key k.
func (c *Collection[T]) Get(k string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.key(it) == k {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// All returns a copy of every record.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Filter returns the records matching pred, in collection order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0)
	for _, it := range c.items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Count returns the number of records matching pred.
func (c *Collection[T]) Count(pred func(T) bool) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, it := range c.items {
		if pred(it) {
			n++
		}
	}
	return n
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
