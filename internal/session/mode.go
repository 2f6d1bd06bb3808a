package session

import (
	"fmt"
	"strings"
)

// Mode selects how a session draws its questions.
type Mode string

const (
	ModeExam     Mode = "exam"
	ModeStudy    Mode = "study"
	ModeMarathon Mode = "marathon"
)

// DefaultSize is the number of questions drawn for exam and study sessions.
const DefaultSize = 25

// ParseMode accepts the canonical mode names and the legacy
// test/preparation/speedrun aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exam", "test":
		return ModeExam, nil
	case "study", "preparation":
		return ModeStudy, nil
	case "marathon", "speedrun":
		return ModeMarathon, nil
	default:
		return "", fmt.Errorf("unknown quiz mode: %q", s)
	}
}

// TracksProgress reports whether correct answers in this mode are added
// to the solved set.
func (m Mode) TracksProgress() bool {
	return m == ModeStudy || m == ModeMarathon
}
