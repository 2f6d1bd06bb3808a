package textract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. Ordered list
// items keep their number so "1. Question" survives rendering.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	w := &mdWriter{src: src}
	w.walk(doc)
	return &Document{Title: titleOf(filename), Text: w.out.String()}, nil
}

type mdWriter struct {
	src    []byte
	out    lineWriter
	prefix string // pending list marker for the next leaf block
}

func (w *mdWriter) walk(n ast.Node) {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		w.emit(inlineText(node, w.src))
		return
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		var buf bytes.Buffer
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(w.src))
		}
		if hb, ok := node.(*ast.HTMLBlock); ok && hb.HasClosure() {
			buf.Write(hb.ClosureLine.Value(w.src))
		}
		w.emit(buf.String())
		return
	case *ast.ListItem:
		if list, ok := node.Parent().(*ast.List); ok && list.IsOrdered() {
			w.prefix = fmt.Sprintf("%d%c ", list.Start+itemIndex(node), list.Marker)
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.walk(c)
	}
}

func (w *mdWriter) emit(block string) {
	if w.prefix != "" {
		block = w.prefix + block
		w.prefix = ""
	}
	w.out.addBlock(block)
}

func itemIndex(item ast.Node) int {
	i := 0
	for s := item.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		i++
	}
	return i
}

// inlineText renders inline children as plain text, turning soft and
// hard line breaks into newlines.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			case *ast.RawHTML:
				for i := 0; i < t.Segments.Len(); i++ {
					seg := t.Segments.At(i)
					buf.Write(seg.Value(src))
				}
			case *ast.AutoLink:
				buf.Write(t.Label(src))
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return buf.String()
}
