package quiz

// AnswerChoice is one answer option of a question.
type AnswerChoice struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is a parsed quiz question.
//
// Answers keeps document order with the correct choice first.
// ShuffledAnswers is a permutation of Answers and CorrectIndex points at
// the correct choice inside it.
type Question struct {
	ID              string         `json:"id"`
	Text            string         `json:"text"`
	Answers         []AnswerChoice `json:"answers"`
	ShuffledAnswers []AnswerChoice `json:"shuffled_answers"`
	CorrectIndex    int            `json:"correct_index"`
}

// Correct returns the correct answer choice.
func (q Question) Correct() AnswerChoice {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.ShuffledAnswers) {
		return AnswerChoice{}
	}
	return q.ShuffledAnswers[q.CorrectIndex]
}
