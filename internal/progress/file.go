package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// FileStore keeps all records in one JSON object on disk, keyed by
// document name. Every write replaces the file atomically.
type FileStore struct {
	path string

	mu      sync.Mutex
	records map[string]Record
}

// NewFileStore opens path, creating parent directories as needed. A
// missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}
	s := &FileStore{path: path, records: make(map[string]Record)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("decode progress file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Load(_ context.Context, doc string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[doc]
	if !ok {
		return Record{}, nil
	}
	rec.Solved = slices.Clone(rec.Solved)
	return rec, nil
}

func (s *FileStore) Save(_ context.Context, doc string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.records[doc]
	s.records[doc] = rec.Normalize()
	if err := s.flush(); err != nil {
		if had {
			s.records[doc] = prev
		} else {
			delete(s.records, doc)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.records[doc]
	if !had {
		return nil
	}
	delete(s.records, doc)
	if err := s.flush(); err != nil {
		s.records[doc] = prev
		return err
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (s *FileStore) Close() error { return nil }

// flush writes the map to a temp file and renames it over the target.
// Caller holds s.mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".progress-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}
