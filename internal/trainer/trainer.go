// Package trainer ties documents, sessions and persisted progress
// together. Decks and sessions live in memory and expire after a period
// of inactivity. Progress is written through on every newly solved
// question.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/quizmaster/internal/metrics"
	"github.com/dgallion1/quizmaster/internal/progress"
	"github.com/dgallion1/quizmaster/internal/quiz"
	"github.com/dgallion1/quizmaster/internal/session"
	"github.com/dgallion1/quizmaster/internal/textract"
)

var (
	ErrNoQuestions     = errors.New("no questions found in document")
	ErrDeckNotFound    = errors.New("deck not found")
	ErrSessionNotFound = errors.New("session not found")

	// ErrProgressNotSaved wraps a store failure after the answer itself
	// was applied.
	ErrProgressNotSaved = errors.New("answer recorded but progress not saved")
)

// Rand is the randomness source shared by answer shuffling and question
// selection.
type Rand interface {
	IntN(n int) int
}

type Config struct {
	SessionSize     int
	TTL             time.Duration
	CleanupInterval time.Duration
	Extract         textract.Options
}

// Trainer is the entry point for every quiz operation.
type Trainer struct {
	cfg     Config
	store   progress.Store
	metrics *metrics.Metrics
	log     *slog.Logger
	newID   func() string

	// rngMu guards parser and selector, which share one Rand.
	rngMu    sync.Mutex
	rng      Rand
	parser   *quiz.Parser
	selector *session.Selector

	decks    *ttlStore[*Deck]
	sessions *ttlStore[*session.Session]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Trainer)

// WithRand makes shuffling and selection deterministic.
func WithRand(rng Rand) Option {
	return func(t *Trainer) {
		t.rng = rng
	}
}

// WithIDFunc replaces uuid generation for deck, session and question ids.
func WithIDFunc(fn func() string) Option {
	return func(t *Trainer) { t.newID = fn }
}

func New(cfg Config, store progress.Store, m *metrics.Metrics, log *slog.Logger, opts ...Option) *Trainer {
	if cfg.SessionSize <= 0 {
		cfg.SessionSize = session.DefaultSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if m == nil {
		m = metrics.New()
	}
	t := &Trainer{
		cfg:      cfg,
		store:    store,
		metrics:  m,
		log:      log,
		newID:    uuid.NewString,
		decks:    newTTLStore[*Deck](cfg.TTL),
		sessions: newTTLStore[*session.Session](cfg.TTL),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.parser = quiz.NewParser(quiz.WithRand(t.rng), quiz.WithIDFunc(t.newID))
	t.selector = session.NewSelector(cfg.SessionSize, t.rng)
	return t
}

// Start launches the expiry loop.
func (t *Trainer) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case now := <-ticker.C:
				t.cleanup(now)
			}
		}
	}()
}

// Stop ends the expiry loop and waits for it.
func (t *Trainer) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

func (t *Trainer) cleanup(now time.Time) {
	decks := t.decks.Cleanup(now)
	sessions := t.sessions.Cleanup(now)
	if decks > 0 || sessions > 0 {
		t.log.Info("expired idle state", "decks", decks, "sessions", sessions)
	}
}

// LoadDocument decodes an uploaded file, parses it and opens a deck. A
// decode failure is returned as *textract.DecodeError.
func (t *Trainer) LoadDocument(ctx context.Context, filename string, r io.Reader) (*Deck, error) {
	start := time.Now()
	format := formatOf(filename)

	doc, err := textract.Extract(r, filename, t.cfg.Extract)
	if err != nil {
		t.metrics.ObserveParse(format, 0, time.Since(start), err)
		t.log.Warn("document decode failed", "filename", filename, "error", err)
		return nil, err
	}
	return t.openDeck(ctx, filename, doc.Title, format, doc.Text, start)
}

// LoadText parses already-extracted text and opens a deck under name.
func (t *Trainer) LoadText(ctx context.Context, name, text string) (*Deck, error) {
	title := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return t.openDeck(ctx, name, title, "text", text, time.Now())
}

// ParseText parses text without opening a deck.
func (t *Trainer) ParseText(text string) []quiz.Question {
	start := time.Now()
	qs := t.parse(text)
	t.metrics.ObserveParse("text", len(qs), time.Since(start), nil)
	return qs
}

func (t *Trainer) parse(text string) []quiz.Question {
	t.rngMu.Lock()
	defer t.rngMu.Unlock()
	return t.parser.Parse(text)
}

func (t *Trainer) openDeck(ctx context.Context, name, title, format, text string, start time.Time) (*Deck, error) {
	log := t.log.With("doc_name", name)

	questions := t.parse(text)
	t.metrics.ObserveParse(format, len(questions), time.Since(start), nil)
	if len(questions) == 0 {
		log.Info("document has no questions", "format", format)
		return nil, ErrNoQuestions
	}

	rec, err := t.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	hash := ContentHashHex([]byte(text))
	if rec.ContentHash != "" && rec.ContentHash != hash {
		log.Warn("document content differs from the one progress was saved for",
			"saved_hash", rec.ContentHash, "content_hash", hash)
	}

	solved := session.NewSolvedSet()
	stale := 0
	for _, i := range rec.Solved {
		if i < 0 || i >= len(questions) {
			stale++
			continue
		}
		solved.Add(i)
	}
	if stale > 0 {
		log.Warn("dropping solved indices past end of document", "count", stale)
	}

	now := time.Now()
	deck := &Deck{
		ID:          t.newID(),
		Name:        name,
		Title:       title,
		Format:      format,
		ContentHash: hash,
		Questions:   questions,
		CreatedAt:   now,
		solved:      solved,
		updatedAt:   now,
	}
	t.decks.Put(deck.ID, deck)

	log.Info("deck opened", "deck_id", deck.ID, "questions", len(questions), "solved", len(solved))
	return deck, nil
}

// Deck returns an open deck.
func (t *Trainer) Deck(id string) (*Deck, error) {
	deck, ok := t.decks.Get(id)
	if !ok {
		return nil, ErrDeckNotFound
	}
	return deck, nil
}

// DiscardDeck closes a deck and its sessions. Persisted progress is kept.
func (t *Trainer) DiscardDeck(id string) error {
	if !t.decks.Delete(id) {
		return ErrDeckNotFound
	}
	n := t.sessions.DeleteFunc(func(s *session.Session) bool { return s.DeckID == id })
	t.log.Info("deck discarded", "deck_id", id, "sessions", n)
	return nil
}

// StartSession selects questions for mode and opens a session over them.
// Answers are reshuffled for every session. Study mode over a fully
// solved deck returns session.ErrFullyLearned.
func (t *Trainer) StartSession(ctx context.Context, deckID string, mode session.Mode) (*session.Session, error) {
	deck, err := t.Deck(deckID)
	if err != nil {
		return nil, err
	}
	deck.touch()

	t.rngMu.Lock()
	indices, err := t.selector.Select(len(deck.Questions), mode, deck.Solved())
	var questions []quiz.Question
	if err == nil {
		questions = make([]quiz.Question, len(indices))
		for i, idx := range indices {
			questions[i] = t.parser.Reshuffle(deck.Questions[idx])
		}
	}
	t.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	sess, err := session.New(t.newID(), deck.ID, deck.Name, mode, indices, questions)
	if err != nil {
		return nil, err
	}
	t.sessions.Put(sess.ID, sess)
	t.metrics.SessionsStarted.WithLabelValues(string(mode)).Inc()

	t.log.Info("session started",
		"session_id", sess.ID, "deck_id", deck.ID, "mode", mode, "questions", len(indices))
	return sess, nil
}

// Session returns an open session.
func (t *Trainer) Session(id string) (*session.Session, error) {
	sess, ok := t.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Answer submits choice for the current question of a session. A correct
// answer in a progress-tracking mode is persisted before returning; if
// that write fails the outcome is still returned alongside the error.
func (t *Trainer) Answer(ctx context.Context, sessionID string, choice int) (session.Outcome, error) {
	sess, err := t.Session(sessionID)
	if err != nil {
		return session.Outcome{}, err
	}
	out, err := sess.Answer(choice)
	if err != nil {
		return session.Outcome{}, err
	}
	t.metrics.ObserveAnswer(string(sess.Mode), out.Correct)

	if out.Correct && sess.Mode.TracksProgress() {
		if err := t.recordSolved(ctx, sess, out.Index); err != nil {
			t.log.Error("progress save failed",
				"session_id", sess.ID, "doc_name", sess.DocName, "index", out.Index, "error", err)
			return out, fmt.Errorf("%w: %w", ErrProgressNotSaved, err)
		}
	}
	return out, nil
}

func (t *Trainer) recordSolved(ctx context.Context, sess *session.Session, index int) error {
	deck, ok := t.decks.Get(sess.DeckID)
	if !ok {
		// Deck expired under a live session; merge straight into the store.
		rec, err := t.store.Load(ctx, sess.DocName)
		if err != nil {
			return err
		}
		set := session.NewSolvedSet(rec.Solved...)
		if !set.Add(index) {
			return nil
		}
		rec.Solved = set.Sorted()
		rec.UpdatedAt = time.Now().UTC()
		return t.store.Save(ctx, sess.DocName, rec)
	}

	deck.saveMu.Lock()
	defer deck.saveMu.Unlock()
	if !deck.markSolved(index) {
		return nil
	}
	return t.store.Save(ctx, deck.Name, progress.Record{
		Solved:      deck.Solved().Sorted(),
		ContentHash: deck.ContentHash,
		UpdatedAt:   time.Now().UTC(),
	})
}

// RestartSession rewinds a session to its first question.
func (t *Trainer) RestartSession(id string) (*session.Session, error) {
	sess, err := t.Session(id)
	if err != nil {
		return nil, err
	}
	sess.Restart()
	return sess, nil
}

// Progress returns the persisted record for a document.
func (t *Trainer) Progress(ctx context.Context, doc string) (progress.Record, error) {
	return t.store.Load(ctx, doc)
}

// ProgressDocuments lists documents with persisted progress.
func (t *Trainer) ProgressDocuments(ctx context.Context) ([]string, error) {
	return t.store.List(ctx)
}

// ResetProgress forgets every solved question for doc, both on disk and
// in any open deck.
func (t *Trainer) ResetProgress(ctx context.Context, doc string) error {
	if err := t.store.Delete(ctx, doc); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	for _, deck := range t.decks.Values() {
		if deck.Name == doc {
			deck.resetSolved()
		}
	}
	t.log.Info("progress reset", "doc_name", doc)
	return nil
}

// ParseStats reports parse latency over the recent window.
func (t *Trainer) ParseStats() metrics.Snapshot {
	return t.metrics.ParseWindow.Snapshot()
}

// Metrics exposes the collectors for the HTTP layer.
func (t *Trainer) Metrics() *metrics.Metrics {
	return t.metrics
}

func formatOf(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
