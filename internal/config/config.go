package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"studydeck/internal/indexer"
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL       string
	LLMModelName     string
	LLMAPIKey        string
	DBPath           string
	APIPort          string
	LogLevel         slog.Level
	LogFormat        string
	PDFServiceURL    string
	UploadDir        string
	MaxUploadMB      int
	InboxDir         string
	ChunkSize        int
	ChunkOverlap     int
	MaxContextChunks int
	StopwordsFile    string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		LLMBaseURL:    getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:  getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:     getEnv("LLM_API_KEY", "dummy-key"),
		DBPath:        getEnv("DB_PATH", "./data/studydeck.db"),
		APIPort:       getEnv("API_PORT", "9000"),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
		PDFServiceURL: getEnv("PDF_SERVICE_URL", "http://localhost:8081"),
		UploadDir:     getEnv("UPLOAD_DIR", "./data/uploads"),
		InboxDir:      getEnv("INBOX_DIR", ""),
		StopwordsFile: getEnv("STOPWORDS_FILE", ""),
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	ints := []struct {
		key      string
		fallback int
		dst      *int
	}{
		{"MAX_UPLOAD_MB", 10, &cfg.MaxUploadMB},
		{"CHUNK_SIZE", indexer.DefaultChunkSize, &cfg.ChunkSize},
		{"CHUNK_OVERLAP", indexer.DefaultOverlap, &cfg.ChunkOverlap},
		{"MAX_CONTEXT_CHUNKS", 3, &cfg.MaxContextChunks},
	}
	for _, v := range ints {
		n, err := getEnvInt(v.key, v.fallback)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	if cfg.MaxContextChunks <= 0 {
		return nil, fmt.Errorf("MAX_CONTEXT_CHUNKS must be greater than 0")
	}
	if err := cfg.Chunker().Validate(); err != nil {
		return nil, fmt.Errorf("invalid CHUNK_SIZE/CHUNK_OVERLAP: %w", err)
	}

	// Create data and upload directories if they don't exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return cfg, nil
}

// Chunker returns the chunking settings.
func (c *Config) Chunker() indexer.ChunkerConfig {
	return indexer.ChunkerConfig{
		ChunkSize: c.ChunkSize,
		Overlap:   c.ChunkOverlap,
	}
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// loadDotEnv loads the first .env found walking up from the working directory.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
