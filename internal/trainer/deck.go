package trainer

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/quizmaster/internal/quiz"
	"github.com/dgallion1/quizmaster/internal/session"
)

// Deck is a parsed document held in memory between sessions.
type Deck struct {
	mu sync.Mutex
	// saveMu serializes progress writes so they land in order.
	saveMu sync.Mutex

	ID          string
	Name        string // upload file name; the progress key
	Title       string
	Format      string
	ContentHash string
	Questions   []quiz.Question
	CreatedAt   time.Time

	solved    session.SolvedSet
	updatedAt time.Time
}

// DeckSummary is a read-only, JSON-safe copy of deck state.
type DeckSummary struct {
	ID            string    `json:"deck_id"`
	Name          string    `json:"name"`
	Title         string    `json:"title"`
	Format        string    `json:"format"`
	ContentHash   string    `json:"content_hash"`
	QuestionCount int       `json:"question_count"`
	SolvedCount   int       `json:"solved_count"`
	FullyLearned  bool      `json:"fully_learned"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary returns a JSON-safe copy of the deck state.
func (d *Deck) Summary() DeckSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DeckSummary{
		ID:            d.ID,
		Name:          d.Name,
		Title:         d.Title,
		Format:        d.Format,
		ContentHash:   d.ContentHash,
		QuestionCount: len(d.Questions),
		SolvedCount:   len(d.solved),
		FullyLearned:  len(d.Questions) > 0 && len(d.solved) >= len(d.Questions),
		CreatedAt:     d.CreatedAt,
	}
}

// Solved returns a copy of the solved set.
func (d *Deck) Solved() session.SolvedSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.solved.Clone()
}

func (d *Deck) markSolved(i int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updatedAt = time.Now()
	return d.solved.Add(i)
}

func (d *Deck) resetSolved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.solved = session.NewSolvedSet()
	d.updatedAt = time.Now()
}

func (d *Deck) touch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updatedAt = time.Now()
}

// LastActive returns when the deck was last used.
func (d *Deck) LastActive() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updatedAt
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
