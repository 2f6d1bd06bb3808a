package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// NewPool opens a pgx connection pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// PostgresStore keeps one row per document in quiz_progress.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the progress table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS quiz_progress (
			doc_name     TEXT PRIMARY KEY,
			solved       INT4[] NOT NULL DEFAULT '{}',
			content_hash TEXT NOT NULL DEFAULT '',
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, doc string) (Record, error) {
	query := `
		SELECT solved, content_hash, updated_at
		FROM quiz_progress
		WHERE doc_name = $1
	`
	var (
		solved []int32
		rec    Record
	)
	err := s.db.QueryRow(ctx, query, doc).Scan(&solved, &rec.ContentHash, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load progress: %w", err)
	}
	rec.Solved = fromInt4(solved)
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, doc string, rec Record) error {
	query := `
		INSERT INTO quiz_progress (doc_name, solved, content_hash, updated_at)
		VALUES ($1, $2::int4[], $3, $4)
		ON CONFLICT (doc_name)
		DO UPDATE SET
			solved = excluded.solved,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`
	rec = rec.Normalize()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.db.Exec(ctx, query, doc, toInt4(rec.Solved), rec.ContentHash, rec.UpdatedAt); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, doc string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM quiz_progress WHERE doc_name = $1`, doc); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT doc_name FROM quiz_progress ORDER BY doc_name`)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect progress rows: %w", err)
	}
	return names, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func toInt4(nums []int) []int32 {
	out := make([]int32, len(nums))
	for i, n := range nums {
		out[i] = int32(n)
	}
	return out
}

func fromInt4(nums []int32) []int {
	out := make([]int, len(nums))
	for i, n := range nums {
		out[i] = int(n)
	}
	return out
}
