// Package store provides the in-memory keyed stores that own every entity in
// the system. Lookup is O(1) by primary id; enumeration preserves insertion
// order so repeated calls observe a stable ordering absent mutation.
package store

import (
	"sync"

	appErrors "github.com/academix/registrar-api/pkg/errors"
)

// Keyed is implemented by every entity the store can hold.
type Keyed interface {
	Key() string
}

// Store is a mutex-guarded map keyed by the entity's primary id. Values are
// pointers; callers mutate entities in place while the store owns membership.
type Store[T Keyed] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// New constructs an empty store.
func New[T Keyed]() *Store[T] {
	return &Store[T]{items: make(map[string]T)}
}

// Put inserts a new entity, failing when the id is already present.
func (s *Store[T]) Put(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := v.Key()
	if _, ok := s.items[id]; ok {
		return appErrors.Clone(appErrors.ErrConflict, "id already exists: "+id)
	}
	s.items[id] = v
	s.order = append(s.order, id)
	return nil
}

// Get returns the entity for the id, and whether it was present.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	return v, ok
}

// Exists reports whether the id is present.
func (s *Store[T]) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Remove deletes and returns the entity for the id.
func (s *Store[T]) Remove(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.items, id)
	for i, key := range s.order {
		if key == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return v, true
}

// Values returns a snapshot of all entities in insertion order. The returned
// slice is a defensive copy; mutating it does not affect the store.
func (s *Store[T]) Values() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Len returns the number of entities held.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// ReplaceAll atomically swaps the store contents for the provided entities,
// keyed by each entity's primary id. Used by the snapshot load path.
func (s *Store[T]) ReplaceAll(values []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(values))
	s.order = s.order[:0]
	for _, v := range values {
		id := v.Key()
		if _, ok := s.items[id]; !ok {
			s.order = append(s.order, id)
		}
		s.items[id] = v
	}
}
