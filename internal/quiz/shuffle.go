package quiz

import "math/rand/v2"

// Rand is the source of randomness used for shuffling.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Shuffle returns a uniformly shuffled copy of answers and the position of
// the correct choice in it (-1 if none is marked).
func Shuffle(answers []AnswerChoice, rng Rand) ([]AnswerChoice, int) {
	if rng == nil {
		rng = globalRand{}
	}
	out := make([]AnswerChoice, len(answers))
	copy(out, answers)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	correct := -1
	for i, a := range out {
		if a.IsCorrect {
			correct = i
			break
		}
	}
	return out, correct
}
