package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/quizmaster/internal/session"
	"github.com/dgallion1/quizmaster/internal/trainer"
)

type startSessionRequest struct {
	Mode string `json:"mode"`
}

type answerRequest struct {
	Choice *int `json:"choice"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := s.trainer.StartSession(r.Context(), deckID, mode)
	switch {
	case errors.Is(err, trainer.ErrDeckNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, session.ErrFullyLearned):
		writeJSON(w, http.StatusOK, map[string]any{
			"deck_id": deckID,
			"mode":    mode,
			"status":  "fully_learned",
		})
		return
	case err != nil:
		s.log.Error("start session failed", "deck_id", deckID, "error", err)
		jsonError(w, "failed to start session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"deck_id":    sess.DeckID,
		"mode":       sess.Mode,
		"total":      len(sess.Indices),
		"current":    sess.Current(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.trainer.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Current())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Choice == nil {
		jsonError(w, "choice is required", http.StatusBadRequest)
		return
	}

	out, err := s.trainer.Answer(r.Context(), sessionID, *req.Choice)
	switch {
	case errors.Is(err, trainer.ErrSessionNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, session.ErrSessionFinished):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, session.ErrInvalidChoice):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, trainer.ErrProgressNotSaved):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   trainer.ErrProgressNotSaved.Error(),
			"outcome": out,
		})
		return
	case err != nil:
		s.log.Error("answer failed", "session_id", sessionID, "error", err)
		jsonError(w, "failed to record answer", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.trainer.RestartSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Current())
}

func (s *Server) handleSessionResult(w http.ResponseWriter, r *http.Request) {
	sess, err := s.trainer.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Result())
}
