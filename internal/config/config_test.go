package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("REPOQA_MODEL", "")
	t.Setenv("REPOQA_TOP_K", "")
	t.Setenv("REPOQA_HISTORY_DB", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultTopK, cfg.TopK)
	assert.Equal(t, DefaultHistoryCtx, cfg.HistoryContext)
	assert.Zero(t, cfg.Workers)
	assert.Zero(t, cfg.CacheSize)
	assert.Contains(t, cfg.HistoryPath, ".repoqa")
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REPOQA_MODEL", "gpt-4o")
	t.Setenv("REPOQA_TOP_K", "10")
	t.Setenv("REPOQA_WORKERS", "4")
	t.Setenv("REPOQA_CACHE_SIZE", "128")
	t.Setenv("REPOQA_HISTORY_DB", "/tmp/test-history.db")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 10, cfg.TopK)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.Equal(t, "/tmp/test-history.db", cfg.HistoryPath)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestFromEnvInvalidInt(t *testing.T) {
	t.Setenv("REPOQA_TOP_K", "not-a-number")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"zero top-k", func(c *Config) { c.TopK = 0 }, true},
		{"negative top-k", func(c *Config) { c.TopK = -1 }, true},
		{"negative history context", func(c *Config) { c.HistoryContext = -1 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"negative cache size", func(c *Config) { c.CacheSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Model: DefaultModel, TopK: DefaultTopK, HistoryContext: DefaultHistoryCtx}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
