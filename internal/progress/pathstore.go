package progress

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/quizmaster/internal/pathstore"
)

// PathstoreStore keeps one pathstore node per document under a prefix.
// Transient failures are retried with backoff.
type PathstoreStore struct {
	client  *pathstore.Client
	prefix  string
	log     *slog.Logger
	backoff func(attempt int) time.Duration
}

// pathstoreValue is the node body. The document name travels with the
// record because node keys are hashed.
type pathstoreValue struct {
	DocName string `json:"doc_name"`
	Record
}

func NewPathstoreStore(baseURL, apiKey, prefix string, log *slog.Logger) *PathstoreStore {
	return &PathstoreStore{
		client:  pathstore.NewClient(baseURL, apiKey),
		prefix:  strings.Trim(prefix, "/"),
		log:     log,
		backoff: pathstore.Backoff,
	}
}

func (s *PathstoreStore) key(doc string) string {
	sum := sha256.Sum256([]byte(doc))
	return s.prefix + "/" + hex.EncodeToString(sum[:12])
}

func (s *PathstoreStore) Load(ctx context.Context, doc string) (Record, error) {
	var node *pathstore.NodeResponse
	err := s.retry(ctx, "load", func() error {
		var err error
		node, err = s.client.GetNode(ctx, s.key(doc))
		return err
	})
	if err != nil {
		return Record{}, fmt.Errorf("load progress %q: %w", doc, err)
	}
	if node == nil || len(node.Value) == 0 {
		return Record{}, nil
	}
	var v pathstoreValue
	if err := json.Unmarshal(node.Value, &v); err != nil {
		return Record{}, fmt.Errorf("decode progress %q: %w", doc, err)
	}
	return v.Record, nil
}

func (s *PathstoreStore) Save(ctx context.Context, doc string, rec Record) error {
	req := pathstore.NodeRequest{
		Value:      pathstoreValue{DocName: doc, Record: rec.Normalize()},
		MergeMode:  "replace",
		MemoryType: "quiz_progress",
		Source:     "quizmaster",
	}
	err := s.retry(ctx, "save", func() error {
		return s.client.PutNode(ctx, s.key(doc), req)
	})
	if err != nil {
		return fmt.Errorf("save progress %q: %w", doc, err)
	}
	return nil
}

func (s *PathstoreStore) Delete(ctx context.Context, doc string) error {
	err := s.retry(ctx, "delete", func() error {
		return s.client.DeleteNode(ctx, s.key(doc), false)
	})
	if err != nil {
		return fmt.Errorf("delete progress %q: %w", doc, err)
	}
	return nil
}

func (s *PathstoreStore) List(ctx context.Context) ([]string, error) {
	var nodes []pathstore.ListChildrenResponse
	err := s.retry(ctx, "list", func() error {
		var err error
		nodes, err = s.client.ListChildren(ctx, s.prefix, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var v pathstoreValue
		if err := json.Unmarshal(n.Value, &v); err != nil || v.DocName == "" {
			s.log.Warn("skipping unreadable progress node", "key", n.Key, "error", err)
			continue
		}
		names = append(names, v.DocName)
	}
	slices.Sort(names)
	return names, nil
}

func (s *PathstoreStore) Close() error {
	s.client.Close()
	return nil
}

func (s *PathstoreStore) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := range pathstore.MaxRetries {
		lastErr = fn()
		if lastErr == nil || !pathstore.IsRetryable(lastErr) {
			return lastErr
		}
		s.log.Warn("retryable pathstore error", "op", op, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(s.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
