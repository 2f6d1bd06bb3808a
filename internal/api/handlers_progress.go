package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	names, err := s.trainer.ProgressDocuments(r.Context())
	if err != nil {
		s.log.Error("list progress failed", "error", err)
		jsonError(w, "failed to list progress", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": names})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	doc, ok := docNameParam(w, r)
	if !ok {
		return
	}
	rec, err := s.trainer.Progress(r.Context(), doc)
	if err != nil {
		s.log.Error("load progress failed", "doc_name", doc, "error", err)
		jsonError(w, "failed to load progress", http.StatusInternalServerError)
		return
	}
	solved := rec.Solved
	if solved == nil {
		solved = []int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_name":     doc,
		"solved":       solved,
		"solved_count": len(solved),
		"content_hash": rec.ContentHash,
		"updated_at":   rec.UpdatedAt,
	})
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	doc, ok := docNameParam(w, r)
	if !ok {
		return
	}
	if err := s.trainer.ResetProgress(r.Context(), doc); err != nil {
		s.log.Error("reset progress failed", "doc_name", doc, "error", err)
		jsonError(w, "failed to reset progress", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_name": doc, "status": "reset"})
}

// docNameParam returns the {docName} path segment. chi routes on the
// escaped path when one is present, so unescape in that case only.
func docNameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	doc := chi.URLParam(r, "docName")
	var err error
	if r.URL.RawPath != "" {
		doc, err = url.PathUnescape(doc)
	}
	if err != nil || doc == "" {
		jsonError(w, "invalid document name", http.StatusBadRequest)
		return "", false
	}
	return doc, true
}
