package textract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor handles CSV question banks. Each row is one question: the
// first column is the question text and every following non-empty column
// is an answer, the first of which is correct.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var out lineWriter
	for _, row := range records {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		out.add("<question> " + singleLine(row[0]))
		for _, cell := range row[1:] {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			out.add("<variant> " + singleLine(cell))
		}
	}
	return &Document{Title: titleOf(filename), Text: out.String()}, nil
}

// singleLine keeps a quoted multi-line cell from being read as
// several lines.
func singleLine(s string) string {
	return collapseSpaces(s)
}
