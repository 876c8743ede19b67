// Package optimistic tracks lists mirrored from a remote source that may hold
// local, not yet confirmed entries.
//
// A tentative entry carries a provisional id. It is either confirmed (replaced
// by the authoritative value), discarded, or dropped by an authoritative
// Replace of the whole list.
package optimistic

import "sync"

type entry[T any] struct {
	value     T
	tentative bool
}

// List is safe for concurrent use
type List[T any] struct {
	mu    sync.RWMutex
	key   func(T) string
	items []entry[T]
}

// New creates an empty list identifying items by key
func New[T any](key func(T) string) *List[T] {
	return &List[T]{key: key}
}

// Add appends a tentative item and returns its provisional id
func (l *List[T]) Add(v T) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, entry[T]{value: v, tentative: true})
	return l.key(v)
}

// Confirm replaces the tentative item id with the authoritative value v.
// It returns false when no tentative item has that id.
func (l *List[T]) Confirm(id string, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 || !l.items[i].tentative {
		return false
	}
	l.items[i] = entry[T]{value: v}
	return true
}

// Discard removes the item id, tentative or not
func (l *List[T]) Discard(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	removed := l.items[i].value
	l.items = append(l.items[:i], l.items[i+1:]...)
	return removed, true
}

// Replace installs the authoritative contents. Every tentative item is dropped.
func (l *List[T]) Replace(vs []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := make([]entry[T], 0, len(vs))
	for _, v := range vs {
		items = append(items, entry[T]{value: v})
	}
	l.items = items
}

// Items returns a snapshot of every item in order
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0, len(l.items))
	for _, e := range l.items {
		out = append(out, e.value)
	}
	return out
}

// Get returns the item id
func (l *List[T]) Get(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.items[i].value, true
	}
	var zero T
	return zero, false
}

// IsTentative reports whether id names an unconfirmed item
func (l *List[T]) IsTentative(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.indexLocked(id)
	return i >= 0 && l.items[i].tentative
}

// Len counts every item
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Confirmed counts the items that are not tentative
func (l *List[T]) Confirmed() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.items {
		if !e.tentative {
			n++
		}
	}
	return n
}

func (l *List[T]) indexLocked(id string) int {
	for i, e := range l.items {
		if l.key(e.value) == id {
			return i
		}
	}
	return -1
}
