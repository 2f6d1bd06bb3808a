// Package progress persists the set of solved question indices per
// document name. It is the only state that outlives a session.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Record is the persisted progress for one document.
type Record struct {
	Solved      []int     `json:"solved"`
	ContentHash string    `json:"content_hash,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize sorts and dedupes Solved in place and returns the record.
func (r Record) Normalize() Record {
	s := slices.Clone(r.Solved)
	slices.Sort(s)
	r.Solved = slices.Compact(s)
	return r
}

// Store is the persistence boundary. Load of an unknown document returns
// a zero Record and a nil error. Save is last-writer-wins.
type Store interface {
	Load(ctx context.Context, doc string) (Record, error)
	Save(ctx context.Context, doc string, rec Record) error
	Delete(ctx context.Context, doc string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile      = "file"
	BackendMemory    = "memory"
	BackendPathstore = "pathstore"
	BackendPostgres  = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	File string

	PathstoreURL    string
	PathstoreAPIKey string
	PathstorePrefix string

	DatabaseURL     string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// Open builds the configured Store.
func Open(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.File)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPathstore:
		return NewPathstoreStore(opts.PathstoreURL, opts.PathstoreAPIKey, opts.PathstorePrefix, log), nil
	case BackendPostgres:
		pool, err := NewPool(ctx, opts.DatabaseURL, PoolConfig{
			MaxConns:        opts.MaxConns,
			MaxConnLifetime: opts.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		st := NewPostgresStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown progress backend %q", opts.Backend)
	}
}
