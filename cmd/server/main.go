package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgallion1/quizmaster/internal/api"
	"github.com/dgallion1/quizmaster/internal/config"
	"github.com/dgallion1/quizmaster/internal/metrics"
	"github.com/dgallion1/quizmaster/internal/progress"
	"github.com/dgallion1/quizmaster/internal/textract"
	"github.com/dgallion1/quizmaster/internal/trainer"
)

func main() {
	// A local .env is optional; real environment variables win.
	envErr := godotenv.Load()

	cfg := config.Load()
	log, closeLog := newLogger(cfg)
	defer closeLog()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn("could not read .env", "error", envErr)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := progress.Open(ctx, progress.Options{
		Backend:         cfg.ProgressBackend,
		File:            cfg.ProgressFile,
		PathstoreURL:    cfg.PathstoreURL,
		PathstoreAPIKey: cfg.PathstoreAPIKey,
		PathstorePrefix: cfg.PathstorePrefix,
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        int32(cfg.DBMaxConns),
		MaxConnLifetime: cfg.DBMaxConnLifetime,
	}, log)
	if err != nil {
		log.Error("open progress store", "backend", cfg.ProgressBackend, "error", err)
		os.Exit(1)
	}

	tr := trainer.New(trainer.Config{
		SessionSize: cfg.SessionSize,
		TTL:         cfg.DeckTTL,
		Extract:     textract.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}, store, metrics.New(), log)
	tr.Start(ctx)

	srv := api.NewServer(tr, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		tr.Stop()
		if err := store.Close(); err != nil {
			log.Error("close progress store", "error", err)
		}
	}()

	log.Info("starting quizmaster",
		"port", cfg.Port,
		"progress_backend", cfg.ProgressBackend,
		"session_size", cfg.SessionSize,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

// newLogger writes JSON to stdout and, when LOG_FILE is set, also to a
// rotating file.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { rotator.Close() }
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel})), closeFn
}
