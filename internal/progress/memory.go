package progress

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in a map. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Load(_ context.Context, doc string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[doc]
	if !ok {
		return Record{}, nil
	}
	rec.Solved = slices.Clone(rec.Solved)
	return rec, nil
}

func (s *MemoryStore) Save(_ context.Context, doc string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[doc] = rec.Normalize()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, doc)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *MemoryStore) Close() error { return nil }
