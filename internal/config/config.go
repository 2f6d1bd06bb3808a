package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer checks on /api.
	QuizAPIKey string

	// Upload limits
	MaxUploadBytes      int64
	UploadRatePerMinute int

	// Sessions
	SessionSize int
	DeckTTL     time.Duration

	// Progress persistence
	ProgressBackend string
	ProgressFile    string

	PathstoreURL    string
	PathstoreAPIKey string
	PathstorePrefix string

	DatabaseURL       string
	DBMaxConns        int
	DBMaxConnLifetime time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		QuizAPIKey: os.Getenv("QUIZ_API_KEY"),

		MaxUploadBytes:      envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB
		UploadRatePerMinute: envInt("UPLOAD_RATE_PER_MINUTE", 30),

		SessionSize: envInt("SESSION_SIZE", 25),
		DeckTTL:     envDuration("DECK_TTL", 6*time.Hour),

		ProgressBackend: strings.ToLower(envOr("PROGRESS_BACKEND", "file")),
		ProgressFile:    envOr("PROGRESS_FILE", "data/progress.json"),

		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		PathstorePrefix: envOr("PATHSTORE_PREFIX", "quizmaster/progress"),

		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        envInt("DB_MAX_CONNS", 5),
		DBMaxConnLifetime: envDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogFile:  os.Getenv("LOG_FILE"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.UploadRatePerMinute < 0 {
		cfg.UploadRatePerMinute = 0
	}
	if cfg.SessionSize <= 0 {
		cfg.SessionSize = 25
	}
	if cfg.DeckTTL <= 0 {
		cfg.DeckTTL = 6 * time.Hour
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 5
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.ProgressBackend {
	case "file":
		if c.ProgressFile == "" {
			return fmt.Errorf("PROGRESS_FILE is required for the file backend")
		}
	case "memory":
	case "pathstore":
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore backend")
		}
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("PROGRESS_BACKEND %q is not one of file, memory, pathstore, postgres", c.ProgressBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
