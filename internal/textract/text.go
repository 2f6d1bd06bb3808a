package textract

import (
	"bufio"
	"io"
	"strings"
)

// TextExtractor handles plain text files.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{
		Title: titleOf(filename),
		Text:  strings.Join(lines, "\n"),
	}, nil
}
