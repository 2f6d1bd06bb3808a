package trainer

import (
	"sync"
	"time"
)

// expirable is anything that knows when it was last used.
type expirable interface {
	LastActive() time.Time
}

// ttlStore is a thread-safe in-memory registry with TTL eviction.
type ttlStore[T expirable] struct {
	mu    sync.Mutex
	items map[string]T
	ttl   time.Duration
}

func newTTLStore[T expirable](ttl time.Duration) *ttlStore[T] {
	return &ttlStore[T]{
		items: make(map[string]T),
		ttl:   ttl,
	}
}

func (s *ttlStore[T]) Put(id string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = item
}

func (s *ttlStore[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}

func (s *ttlStore[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok
}

// DeleteFunc removes every item for which fn returns true.
func (s *ttlStore[T]) DeleteFunc(fn func(T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, item := range s.items {
		if fn(item) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// Values returns a snapshot of the stored items.
func (s *ttlStore[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out
}

func (s *ttlStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Cleanup removes expired items and returns how many were dropped.
func (s *ttlStore[T]) Cleanup(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	return s.DeleteFunc(func(item T) bool {
		return now.Sub(item.LastActive()) > s.ttl
	})
}
