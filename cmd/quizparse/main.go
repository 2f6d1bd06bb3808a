// Command quizparse converts a quiz document into JSON without starting the
// HTTP server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/quizmaster/internal/quiz"
	"github.com/dgallion1/quizmaster/internal/textract"
)

type output struct {
	Title     string          `json:"title"`
	Source    string          `json:"source"`
	Count     int             `json:"count"`
	Questions []quiz.Question `json:"questions"`
}

func main() {
	input := flag.String("input", "", "Path to the quiz document (.txt, .md, .html, .csv, .pdf, .docx)")
	outputPath := flag.String("output", "", "Path to output JSON file (defaults to stdout)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	pdftotext := flag.Bool("pdftotext", false, "Fall back to pdftotext when native PDF extraction yields nothing")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *input == "" {
		fmt.Fprintf(os.Stderr, "Error: input file required\n")
		fmt.Fprintf(os.Stderr, "Usage: quizparse -input <file> [-output <json-file>] [-verbose]\n")
		os.Exit(2)
	}

	if err := run(*input, *outputPath, textract.Options{PDFFallbackPdftotext: *pdftotext}, log); err != nil {
		log.Error("quizparse failed", "input", *input, "error", err)
		os.Exit(1)
	}
}

func run(input, outputPath string, opts textract.Options, log *slog.Logger) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	doc, err := textract.Extract(f, filepath.Base(input), opts)
	if err != nil {
		return err
	}
	log.Debug("extracted text", "title", doc.Title, "bytes", len(doc.Text))

	questions := quiz.Parse(doc.Text)
	if len(questions) == 0 {
		return fmt.Errorf("no questions found in %s", input)
	}
	log.Info("parsed questions", "count", len(questions))

	data, err := json.MarshalIndent(output{
		Title:     doc.Title,
		Source:    filepath.Base(input),
		Count:     len(questions),
		Questions: questions,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info("wrote output", "path", outputPath)
	return nil
}
