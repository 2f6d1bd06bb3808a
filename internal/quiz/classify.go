package quiz

import (
	"regexp"
	"strings"
)

// lineKind is the classification of a single non-empty document line.
type lineKind int

const (
	lineContinuation lineKind = iota
	lineQuestion
	lineAnswer
)

// Markers are anchored at the start of the line so that ordinary
// punctuation inside a sentence never opens a question or an answer.
var (
	questionStartRe = regexp.MustCompile(`^\s*(?i:<question>|\d+[.)]+)\s*(.*)$`)
	answerStartRe   = regexp.MustCompile(`^\s*(?i:<variant>|[a-eа-д][.)]+)\s*(.*)$`)
)

// classify reports the kind of line and, for marker lines, the text that
// follows the marker.
func classify(line string) (lineKind, string) {
	if m := questionStartRe.FindStringSubmatch(line); m != nil {
		return lineQuestion, strings.TrimSpace(m[1])
	}
	if m := answerStartRe.FindStringSubmatch(line); m != nil {
		return lineAnswer, strings.TrimSpace(m[1])
	}
	return lineContinuation, strings.TrimSpace(line)
}
