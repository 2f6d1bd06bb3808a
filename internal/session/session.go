package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/quizmaster/internal/quiz"
)

var (
	ErrSessionFinished = errors.New("session is finished")
	ErrInvalidChoice   = errors.New("invalid answer choice")
)

// PassPercent is the score share needed to pass a session.
const PassPercent = 50.0

// Session is one bounded run over a subset of a document's questions.
type Session struct {
	mu sync.Mutex

	ID      string `json:"session_id"`
	DeckID  string `json:"deck_id"`
	DocName string `json:"doc_name"`
	Mode    Mode   `json:"mode"`

	// Indices are positions in the document's question list, in the order
	// they are asked.
	Indices []int `json:"indices"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	questions []quiz.Question
	current   int
	score     int
}

// New creates a session. questions[i] is the question asked for
// indices[i], already shuffled for this session.
func New(id, deckID, docName string, mode Mode, indices []int, questions []quiz.Question) (*Session, error) {
	if len(indices) != len(questions) {
		return nil, fmt.Errorf("session: %d indices for %d questions", len(indices), len(questions))
	}
	now := time.Now()
	return &Session{
		ID:        id,
		DeckID:    deckID,
		DocName:   docName,
		Mode:      mode,
		Indices:   indices,
		CreatedAt: now,
		UpdatedAt: now,
		questions: questions,
	}, nil
}

// View is what a player sees of the question under the cursor.
type View struct {
	SessionID string   `json:"session_id"`
	Mode      Mode     `json:"mode"`
	Position  int      `json:"position"`
	Total     int      `json:"total"`
	Index     int      `json:"index"`
	Text      string   `json:"text,omitempty"`
	Answers   []string `json:"answers,omitempty"`
	Score     int      `json:"score"`
	Finished  bool     `json:"finished"`
}

// Outcome is the result of answering one question.
type Outcome struct {
	Index        int  `json:"index"`
	Choice       int  `json:"choice"`
	Correct      bool `json:"correct"`
	CorrectIndex int  `json:"correct_index"`
	Score        int  `json:"score"`
	Finished     bool `json:"finished"`
}

// Result summarizes a session.
type Result struct {
	Mode     Mode    `json:"mode"`
	Score    int     `json:"score"`
	Total    int     `json:"total"`
	Answered int     `json:"answered"`
	Percent  float64 `json:"percent"`
	Passed   bool    `json:"passed"`
	Finished bool    `json:"finished"`
}

// Current returns the view of the question under the cursor.
func (s *Session) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID: s.ID,
		Mode:      s.Mode,
		Position:  s.current,
		Total:     len(s.questions),
		Index:     -1,
		Score:     s.score,
		Finished:  s.finishedLocked(),
	}
	if v.Finished {
		return v
	}
	q := s.questions[s.current]
	v.Index = s.Indices[s.current]
	v.Text = q.Text
	v.Answers = make([]string, len(q.ShuffledAnswers))
	for i, a := range q.ShuffledAnswers {
		v.Answers[i] = a.Text
	}
	return v
}

// Answer checks choice against the shuffled answers of the current
// question and advances the cursor.
func (s *Session) Answer(choice int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finishedLocked() {
		return Outcome{}, ErrSessionFinished
	}
	q := s.questions[s.current]
	if choice < 0 || choice >= len(q.ShuffledAnswers) {
		return Outcome{}, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidChoice, choice, len(q.ShuffledAnswers))
	}

	out := Outcome{
		Index:        s.Indices[s.current],
		Choice:       choice,
		Correct:      choice == q.CorrectIndex,
		CorrectIndex: q.CorrectIndex,
	}
	if out.Correct {
		s.score++
	}
	s.current++
	s.UpdatedAt = time.Now()

	out.Score = s.score
	out.Finished = s.finishedLocked()
	return out, nil
}

// Result returns the score summary so far.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Result{
		Mode:     s.Mode,
		Score:    s.score,
		Total:    len(s.questions),
		Answered: s.current,
		Finished: s.finishedLocked(),
	}
	if r.Total > 0 {
		r.Percent = float64(r.Score) / float64(r.Total) * 100
	}
	r.Passed = r.Percent >= PassPercent
	return r
}

// Restart rewinds the cursor and score for another run over the same
// questions.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = 0
	s.score = 0
	s.UpdatedAt = time.Now()
}

// LastActive returns when the session was last touched.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

func (s *Session) finishedLocked() bool {
	return s.current >= len(s.questions)
}
