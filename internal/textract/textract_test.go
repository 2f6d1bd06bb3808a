package textract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestTextExtractor_Passthrough(t *testing.T) {
	input := "1. Question\r\na) right\n\nb) wrong\n"
	doc, err := (&TextExtractor{}).Extract(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := "1. Question\na) right\n\nb) wrong"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestCSVExtractor_RowsBecomeQuestions(t *testing.T) {
	input := "\"What is 2+2?\",4,5,\"\"\nCapital of France?,Paris,Rome\n,orphan,row\n"
	doc, err := (&CSVExtractor{}).Extract(strings.NewReader(input), "bank.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := strings.Join([]string{
		"<question> What is 2+2?",
		"<variant> 4",
		"<variant> 5",
		"<question> Capital of France?",
		"<variant> Paris",
		"<variant> Rome",
	}, "\n")
	if doc.Text != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, doc.Text)
	}
}

func TestCSVExtractor_MultiLineCellStaysOnOneLine(t *testing.T) {
	input := "\"Line one\nline two\",yes,no\n"
	doc, err := (&CSVExtractor{}).Extract(strings.NewReader(input), "bank.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(doc.Text, "<question> Line one line two\n") {
		t.Errorf("expected joined question line, got %q", doc.Text)
	}
}

func TestMarkdownExtractor_OrderedListKeepsNumbers(t *testing.T) {
	input := `# Biology quiz

1. What is the powerhouse of the cell?
a) Mitochondria
b) Nucleus

2. Which organelle does photosynthesis?
a) Chloroplast
b) Ribosome
`
	doc, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input), "bio.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "bio" {
		t.Errorf("expected title %q, got %q", "bio", doc.Title)
	}
	want := strings.Join([]string{
		"Biology quiz",
		"1. What is the powerhouse of the cell?",
		"a) Mitochondria",
		"b) Nucleus",
		"2. Which organelle does photosynthesis?",
		"a) Chloroplast",
		"b) Ribosome",
	}, "\n")
	if doc.Text != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, doc.Text)
	}
}

func TestMarkdownExtractor_ListStartNumber(t *testing.T) {
	input := "3) Third\n4) Fourth\n"
	doc, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input), "q.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "3) Third\n4) Fourth"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestMarkdownExtractor_EmphasisIsFlattened(t *testing.T) {
	input := "Which is **bold** and _italic_?\n"
	doc, err := (&MarkdownExtractor{}).Extract(strings.NewReader(input), "q.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Which is bold and italic?"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
}

func TestMarkdownExtractor_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownExtractor{}).Extract(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
}

func TestHTMLExtractor_BlocksBecomeLines(t *testing.T) {
	input := `<html><head><title>Quiz</title><style>p { color: red; }</style></head><body>
<p>1. What is <b>H2O</b>?</p>
<ul><li>a) Water</li><li>b) Salt</li></ul>
<div>2. Second<br>continued</div>
<script>var x = 1;</script>
</body></html>`
	doc, err := (&HTMLExtractor{}).Extract(strings.NewReader(input), "quiz.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Quiz" {
		t.Errorf("expected title %q, got %q", "Quiz", doc.Title)
	}
	want := strings.Join([]string{
		"1. What is H2O?",
		"a) Water",
		"b) Salt",
		"2. Second",
		"continued",
	}, "\n")
	if doc.Text != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, doc.Text)
	}
}

func TestHTMLExtractor_TitleFallsBackToFilename(t *testing.T) {
	doc, err := (&HTMLExtractor{}).Extract(strings.NewReader("<p>hello</p>"), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "page" {
		t.Errorf("expected title %q, got %q", "page", doc.Title)
	}
	if doc.Text != "hello" {
		t.Errorf("expected %q, got %q", "hello", doc.Text)
	}
}

func TestDOCXExtractor_Paragraphs(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("1. Capital of Kazakhstan?")
	w.AddParagraph().AddText("a) Astana")
	w.AddParagraph()
	w.AddParagraph().AddText("b) Almaty")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	doc, err := Extract(bytes.NewReader(buf.Bytes()), "geo.docx", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "1. Capital of Kazakhstan?\na) Astana\nb) Almaty"
	if doc.Text != want {
		t.Errorf("expected %q, got %q", want, doc.Text)
	}
	if doc.Title != "geo" {
		t.Errorf("expected title %q, got %q", "geo", doc.Title)
	}
}

func TestExtract_CorruptDOCXIsDecodeError(t *testing.T) {
	_, err := Extract(strings.NewReader("definitely not a zip"), "broken.docx", Options{})
	if err == nil {
		t.Fatal("expected error for corrupt docx")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if de.Filename != "broken.docx" {
		t.Errorf("expected filename %q, got %q", "broken.docx", de.Filename)
	}
}

func TestExtract_CorruptPDFIsDecodeError(t *testing.T) {
	_, err := Extract(strings.NewReader("%PDF-garbage"), "broken.pdf", Options{})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	_, err := Extract(strings.NewReader("x"), "slides.pptx", Options{})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported file extension") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestIsSupportedExtension(t *testing.T) {
	cases := map[string]bool{
		"a.docx":     true,
		"A.DOCX":     true,
		"b.pdf":      true,
		"c.md":       true,
		"d.markdown": true,
		"e.csv":      true,
		"f.htm":      true,
		"g.txt":      true,
		"h.doc":      false,
		"noext":      false,
	}
	for name, want := range cases {
		if got := IsSupportedExtension(name); got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}
