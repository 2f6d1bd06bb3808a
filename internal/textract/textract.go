package textract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Document is the plain-text content of an uploaded file.
type Document struct {
	Title string // file name without extension
	Text  string // newline-delimited lines
}

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Document, error)
}

// DecodeError reports a document that could not be read. No partial text
// is returned alongside it.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tunes extractors that have knobs.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Extract picks an extractor by file name and runs it. Any failure is
// returned as a *DecodeError.
func Extract(r io.Reader, filename string, opts Options) (*Document, error) {
	ex, err := ForFile(filename, opts)
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}
	doc, err := ex.Extract(r, filename)
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}
	return doc, nil
}

func titleOf(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// lineWriter collects non-empty lines.
type lineWriter struct {
	sb strings.Builder
}

func (w *lineWriter) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if w.sb.Len() > 0 {
		w.sb.WriteByte('\n')
	}
	w.sb.WriteString(line)
}

// addBlock adds every line of a multi-line block.
func (w *lineWriter) addBlock(block string) {
	for _, l := range strings.Split(block, "\n") {
		w.add(l)
	}
}

func (w *lineWriter) String() string {
	return w.sb.String()
}
