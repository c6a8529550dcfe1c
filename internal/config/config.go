// Package config loads repoqa configuration from the environment. All
// settings are carried in an explicit Config value threaded through
// constructors; nothing reads ambient state after startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Defaults.
const (
	DefaultModel      = "gpt-3.5-turbo"
	DefaultTopK       = 5
	DefaultHistoryCtx = 5
)

// Config holds all runtime configuration.
type Config struct {
	// Model is the chat model used for answer generation.
	Model string
	// OpenAIAPIKey authenticates answer generation. May be empty for
	// retrieval-only commands.
	OpenAIAPIKey string
	// TopK is the number of passages retrieved per question.
	TopK int
	// HistoryPath is the SQLite file for conversation history.
	HistoryPath string
	// HistoryContext is how many past exchanges feed each prompt.
	HistoryContext int
	// Workers bounds corpus-build concurrency; 0 means NumCPU.
	Workers int
	// CacheSize enables the searcher's response cache when positive.
	CacheSize int
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything unset. Call godotenv.Load beforehand if .env support is wanted.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Model:          envOr("REPOQA_MODEL", DefaultModel),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		TopK:           DefaultTopK,
		HistoryContext: DefaultHistoryCtx,
	}

	var err error
	if cfg.TopK, err = envInt("REPOQA_TOP_K", DefaultTopK); err != nil {
		return nil, err
	}
	if cfg.HistoryContext, err = envInt("REPOQA_HISTORY_CONTEXT", DefaultHistoryCtx); err != nil {
		return nil, err
	}
	if cfg.Workers, err = envInt("REPOQA_WORKERS", 0); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = envInt("REPOQA_CACHE_SIZE", 0); err != nil {
		return nil, err
	}

	cfg.HistoryPath = os.Getenv("REPOQA_HISTORY_DB")
	if cfg.HistoryPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.HistoryPath = filepath.Join(home, ".repoqa", "history.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", c.TopK)
	}
	if c.HistoryContext < 0 {
		return fmt.Errorf("history context must be non-negative, got %d", c.HistoryContext)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must be non-negative, got %d", c.CacheSize)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
