package cache

import (
	"sync"
	"time"
)

// Snapshot holds the last successfully loaded copy of a backend list. A new
// load replaces it wholesale; readers always see one complete load.
type Snapshot[T any] struct {
	mu       sync.RWMutex
	items    []T
	loadedAt time.Time
	loaded   bool
}

func NewSnapshot[T any]() *Snapshot[T] {
	return &Snapshot[T]{}
}

// Replace swaps in items as the current snapshot.
func (s *Snapshot[T]) Replace(items []T, at time.Time) {
	cp := make([]T, len(items))
	copy(cp, items)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cp
	s.loadedAt = at
	s.loaded = true
}

// Get returns a copy of the snapshot, when it was loaded, and whether any
// load has succeeded yet.
func (s *Snapshot[T]) Get() ([]T, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]T, len(s.items))
	copy(cp, s.items)
	return cp, s.loadedAt, s.loaded
}
