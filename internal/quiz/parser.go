package quiz

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// parseState is the position of the parser within the document.
type parseState int

const (
	stateNoQuestion parseState = iota
	stateInQuestionHeader
	stateInAnswers
)

// Parser turns extracted document text into questions. It holds no state
// between Parse calls and may be shared by independent documents as long
// as its Rand is safe for the caller's concurrency.
type Parser struct {
	rng   Rand
	newID func() string
}

// Option configures a Parser.
type Option func(*Parser)

// WithRand sets the random source used for answer shuffling.
func WithRand(rng Rand) Option {
	return func(p *Parser) { p.rng = rng }
}

// WithIDFunc sets the question id generator.
func WithIDFunc(fn func() string) Option {
	return func(p *Parser) { p.newID = fn }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		rng:   globalRand{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = globalRand{}
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// Parse extracts questions from raw document text using a default Parser.
func Parse(rawText string) []Question {
	return NewParser().Parse(rawText)
}

// cursor is the question being assembled.
type cursor struct {
	text      string
	answers   []string
	reference string
}

// Parse walks the text line by line and returns the questions in document
// order. Malformed lines are treated as continuation text; it never fails.
func (p *Parser) Parse(rawText string) []Question {
	var (
		out   []Question
		state = stateNoQuestion
		cur   cursor
	)

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			continue
		}

		kind, rest := classify(line)
		switch kind {
		case lineQuestion:
			if state == stateInAnswers {
				if q, ok := p.finalize(cur); ok {
					out = append(out, q)
				}
			}
			// A header still waiting for answers is replaced.
			cur = cursor{text: rest}
			state = stateInQuestionHeader

		case lineAnswer:
			switch state {
			case stateNoQuestion:
				// Orphan answer, nothing to attach it to.
			case stateInQuestionHeader:
				cur.answers = append(cur.answers, rest)
				cur.reference = rest
				state = stateInAnswers
			case stateInAnswers:
				cur.answers = append(cur.answers, rest)
			}

		case lineContinuation:
			switch state {
			case stateNoQuestion:
			case stateInQuestionHeader:
				cur.text = joinLine(cur.text, rest)
			case stateInAnswers:
				last := len(cur.answers) - 1
				cur.answers[last] = joinLine(cur.answers[last], rest)
				if last == 0 {
					cur.reference = cur.answers[0]
				}
			}
		}
	}

	if state == stateInAnswers {
		if q, ok := p.finalize(cur); ok {
			out = append(out, q)
		}
	}
	return out
}

// Reshuffle returns q with a fresh permutation of its answers.
func (p *Parser) Reshuffle(q Question) Question {
	q.ShuffledAnswers, q.CorrectIndex = Shuffle(q.Answers, p.rng)
	return q
}

// finalize builds a Question from the cursor. The first answer seen is the
// correct one; an empty reference leaves nothing to mark and drops the
// question.
func (p *Parser) finalize(c cursor) (Question, bool) {
	text := strings.TrimSpace(c.text)
	if text == "" || len(c.answers) == 0 || c.reference == "" {
		return Question{}, false
	}

	answers := make([]AnswerChoice, 0, len(c.answers))
	marked := false
	for _, a := range c.answers {
		if a == "" {
			continue
		}
		correct := !marked && a == c.reference
		if correct {
			marked = true
		}
		answers = append(answers, AnswerChoice{Text: a, IsCorrect: correct})
	}
	if !marked {
		return Question{}, false
	}

	shuffled, idx := Shuffle(answers, p.rng)
	return Question{
		ID:              p.newID(),
		Text:            text,
		Answers:         answers,
		ShuffledAnswers: shuffled,
		CorrectIndex:    idx,
	}, true
}

// joinLine appends a continuation fragment with a single space.
func joinLine(base, fragment string) string {
	if base == "" {
		return fragment
	}
	return base + " " + fragment
}
