package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/atinyakov/nomoslink/internal/models"
)

// Tracked is the type-erased view of a collection used by the durable
// cache and the sync engine.
type Tracked interface {
	// Name is the cache key, e.g. "courtCases".
	Name() string
	// Table is the remote table name, e.g. "court_cases".
	Table() string
	Len() int
	// Snapshot encodes the collection as a JSON array in order.
	Snapshot() ([]byte, error)
	// Restore replaces the collection with a JSON array.
	Restore(data []byte, origin Origin) error
	// Prepare decodes a JSON array without touching the collection. The
	// returned commit installs it.
	Prepare(data []byte) (commit func(Origin), err error)
}

// normalizer is implemented by entities with derived fields.
type normalizer[T any] interface {
	Normalized() T
}

// Collection holds one ordered entity family. Every write goes through a
// reducer run under the collection lock, so queued writes never lose
// updates.
type Collection[T models.Record] struct {
	name  string
	table string
	emit  func(Change)

	mu    sync.RWMutex
	items []T
}

func newCollection[T models.Record](name, table string, emit func(Change)) *Collection[T] {
	return &Collection[T]{name: name, table: table, emit: emit, items: []T{}}
}

func (c *Collection[T]) Name() string  { return c.name }
func (c *Collection[T]) Table() string { return c.table }

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// All returns a copy of the records in insertion order.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.GetID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Apply runs fn over a copy of the current records and commits the result
// when fn reports a change. It returns whether anything was committed.
func (c *Collection[T]) Apply(fn func(prev []T) ([]T, bool)) bool {
	c.mu.Lock()
	next, changed := fn(slices.Clone(c.items))
	if changed {
		if next == nil {
			next = []T{}
		}
		c.items = next
	}
	c.mu.Unlock()

	if changed {
		c.emit(Change{Collection: c.name, Origin: OriginLocal})
	}
	return changed
}

// Update is Apply for reducers that always change the collection.
func (c *Collection[T]) Update(fn func(prev []T) []T) {
	c.Apply(func(prev []T) ([]T, bool) {
		return fn(prev), true
	})
}

// Append adds item at the end.
func (c *Collection[T]) Append(item T) {
	c.Update(func(prev []T) []T {
		return append(prev, normalize(item))
	})
}

// Upsert replaces the record with the same id in place or appends it.
func (c *Collection[T]) Upsert(item T) {
	item = normalize(item)
	c.Update(func(prev []T) []T {
		for i := range prev {
			if prev[i].GetID() == item.GetID() {
				prev[i] = item
				return prev
			}
		}
		return append(prev, item)
	})
}

// Modify rewrites the record with the given id. It reports false, and
// commits nothing, when the record does not exist or fn declines.
func (c *Collection[T]) Modify(id string, fn func(cur T) (T, bool)) bool {
	return c.Apply(func(prev []T) ([]T, bool) {
		for i := range prev {
			if prev[i].GetID() != id {
				continue
			}
			next, ok := fn(prev[i])
			if !ok {
				return prev, false
			}
			prev[i] = normalize(next)
			return prev, true
		}
		return prev, false
	})
}

// Remove deletes the record with the given id.
func (c *Collection[T]) Remove(id string) bool {
	return c.Apply(func(prev []T) ([]T, bool) {
		i := slices.IndexFunc(prev, func(item T) bool { return item.GetID() == id })
		if i < 0 {
			return prev, false
		}
		return slices.Delete(prev, i, i+1), true
	})
}

// Replace swaps the whole collection. Used by sync and import.
func (c *Collection[T]) Replace(items []T, origin Origin) {
	next := make([]T, len(items))
	for i, item := range items {
		next[i] = normalize(item)
	}

	c.mu.Lock()
	c.items = next
	c.mu.Unlock()

	c.emit(Change{Collection: c.name, Origin: origin})
}

// Snapshot implements Tracked.
func (c *Collection[T]) Snapshot() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c.items)
}

// Restore implements Tracked.
func (c *Collection[T]) Restore(data []byte, origin Origin) error {
	commit, err := c.Prepare(data)
	if err != nil {
		return err
	}
	commit(origin)
	return nil
}

// Prepare implements Tracked.
func (c *Collection[T]) Prepare(data []byte) (func(Origin), error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return func(origin Origin) { c.Replace(items, origin) }, nil
}

func normalize[T any](item T) T {
	if n, ok := any(item).(normalizer[T]); ok {
		return n.Normalized()
	}
	return item
}
