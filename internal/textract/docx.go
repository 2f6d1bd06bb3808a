package textract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files, one line per paragraph.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "quizmaster-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var out lineWriter
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			out.addBlock(docxParagraphText(it))
		case *docx.Table:
			docxTableText(it, &out)
		}
	}

	return &Document{Title: titleOf(filename), Text: out.String()}, nil
}

// docxTableText emits the paragraphs of every cell, row by row.
func docxTableText(tbl *docx.Table, out *lineWriter) {
	for _, row := range tbl.TableRows {
		for _, cell := range row.TableCells {
			for _, para := range cell.Paragraphs {
				out.addBlock(docxParagraphText(para))
			}
			for _, nested := range cell.Tables {
				docxTableText(nested, out)
			}
		}
	}
}

// docxParagraphText joins the text runs of a paragraph. Explicit line
// breaks inside the paragraph become newlines.
func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			docxRunText(c, &buf)
		case *docx.Hyperlink:
			docxRunText(&c.Run, &buf)
		}
	}
	return buf.String()
}

func docxRunText(run *docx.Run, buf *strings.Builder) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		case *docx.Tab:
			buf.WriteByte('\t')
		}
	}
}
