package session

import (
	"errors"
	"math/rand/v2"
)

// ErrFullyLearned is returned for a study request when every question of
// the document is already solved. It is informational: callers should
// congratulate the user rather than start a session.
var ErrFullyLearned = errors.New("all questions are solved")

// ErrNoQuestions is returned when selecting from an empty question set.
var ErrNoQuestions = errors.New("no questions to select from")

// Rand is the random source used by Selector.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Selector picks the question indices for a session.
type Selector struct {
	size int
	rng  Rand
}

// NewSelector creates a Selector drawing at most size questions for exam
// and study sessions. A nil rng uses the process-wide generator.
func NewSelector(size int, rng Rand) *Selector {
	if size <= 0 {
		size = DefaultSize
	}
	if rng == nil {
		rng = globalRand{}
	}
	return &Selector{size: size, rng: rng}
}

// Size returns the session size cap.
func (s *Selector) Size() int {
	return s.size
}

// Select returns the ordered indices into a question set of length n for
// one session in the given mode. solved is only consulted in study mode.
func (s *Selector) Select(n int, mode Mode, solved SolvedSet) ([]int, error) {
	if n <= 0 {
		return nil, ErrNoQuestions
	}

	switch mode {
	case ModeExam:
		return s.sample(allIndices(n), s.size), nil
	case ModeMarathon:
		return s.shuffled(allIndices(n)), nil
	case ModeStudy:
		unsolved := make([]int, 0, n)
		for i := range n {
			if !solved.Has(i) {
				unsolved = append(unsolved, i)
			}
		}
		if len(unsolved) == 0 {
			return nil, ErrFullyLearned
		}
		return s.sample(unsolved, s.size), nil
	default:
		return nil, errors.New("unknown quiz mode: " + string(mode))
	}
}

// sample returns k distinct elements of pool in random order.
func (s *Selector) sample(pool []int, k int) []int {
	out := s.shuffled(pool)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// shuffled returns a Fisher-Yates shuffled copy of in.
func (s *Selector) shuffled(in []int) []int {
	out := append([]int(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
