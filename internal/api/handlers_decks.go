package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/quizmaster/internal/quiz"
	"github.com/dgallion1/quizmaster/internal/textract"
	"github.com/dgallion1/quizmaster/internal/trainer"
)

func (s *Server) handleUploadDeck(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !textract.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	deck, err := s.trainer.LoadDocument(r.Context(), filename, bytes.NewReader(data))
	var decodeErr *textract.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		jsonError(w, "could not read document: "+decodeErr.Err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, trainer.ErrNoQuestions):
		jsonError(w, "no questions found in document", http.StatusUnprocessableEntity)
		return
	case err != nil:
		s.log.Error("load document failed", "filename", filename, "error", err)
		jsonError(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, deck.Summary())
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	questions := s.trainer.ParseText(string(body))
	if questions == nil {
		questions = []quiz.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(questions),
		"questions": questions,
	})
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.trainer.Deck(chi.URLParam(r, "deckID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if r.URL.Query().Get("questions") != "true" {
		writeJSON(w, http.StatusOK, deck.Summary())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deck":      deck.Summary(),
		"questions": deck.Questions,
	})
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if err := s.trainer.DiscardDeck(deckID); err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deck_id": deckID, "status": "discarded"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
