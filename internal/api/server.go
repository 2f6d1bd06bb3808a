package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/quizmaster/internal/config"
	"github.com/dgallion1/quizmaster/internal/trainer"
)

// Server is the HTTP API server for quizmaster.
type Server struct {
	router  chi.Router
	trainer *trainer.Trainer
	limiter *RateLimiter
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(tr *trainer.Trainer, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		trainer: tr,
		limiter: NewRateLimiter(cfg.UploadRatePerMinute, time.Minute),
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(MetricsMiddleware(s.trainer.Metrics()))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.trainer.Metrics().Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.QuizAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.QuizAPIKey, s.log))
		}

		r.With(s.limiter.Middleware).Post("/api/decks", s.handleUploadDeck)
		r.With(s.limiter.Middleware).Post("/api/parse", s.handleParse)
		r.Get("/api/decks/{deckID}", s.handleGetDeck)
		r.Delete("/api/decks/{deckID}", s.handleDeleteDeck)
		r.Post("/api/decks/{deckID}/sessions", s.handleStartSession)

		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Post("/api/sessions/{sessionID}/answer", s.handleAnswer)
		r.Post("/api/sessions/{sessionID}/restart", s.handleRestartSession)
		r.Get("/api/sessions/{sessionID}/result", s.handleSessionResult)

		r.Get("/api/progress", s.handleListProgress)
		r.Get("/api/progress/{docName}", s.handleGetProgress)
		r.Delete("/api/progress/{docName}", s.handleResetProgress)

		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
