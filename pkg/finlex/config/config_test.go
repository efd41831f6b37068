package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/finlex/pkg/finlex/extract"
	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, extract.DefaultThresholds, cfg.Matching.Thresholds)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "finlex.yaml", `
vocabulary:
  path: terms.csv
matching:
  scorer: token-set
  max_ngram: 4
  max_tokens: 32
  thresholds:
    full_match: 90
    early_accept: 85
    floor: 75
server:
  addr: 127.0.0.1:9000
  allowed_origins: [https://example.com]
  max_body_bytes: 4096
  query_timeout_seconds: 2
store:
  path: history.db
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "terms.csv", cfg.Vocabulary.Path)
	assert.Equal(t, "token-set", cfg.Matching.Scorer)
	assert.Equal(t, 4, cfg.Matching.MaxNGram)
	assert.Equal(t, 32, cfg.Matching.MaxTokens)
	assert.Equal(t, extract.Thresholds{FullMatch: 90, EarlyAccept: 85, Floor: 75}, cfg.Matching.Thresholds)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.EqualValues(t, 4096, cfg.Server.MaxBodyBytes)
	assert.Equal(t, 2, cfg.Server.QueryTimeoutSeconds)
	assert.Equal(t, "history.db", cfg.Store.Path)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched sections keep their defaults
	assert.Equal(t, 4096, cfg.Matching.CacheSize)
	assert.Equal(t, 5, cfg.Server.ShutdownSeconds)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "finlex.toml", `
[vocabulary]
path = "glossary.html"

[matching]
scorer = "jaro-winkler"
parallelism = 2

[matching.thresholds]
full_match = 82
early_accept = 80
floor = 60
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "glossary.html", cfg.Vocabulary.Path)
	assert.Equal(t, "jaro-winkler", cfg.Matching.Scorer)
	assert.Equal(t, 2, cfg.Matching.Parallelism)
	assert.Equal(t, 60, cfg.Matching.Thresholds.Floor)
	assert.Equal(t, 6, cfg.Matching.MaxNGram)
	assert.Equal(t, extract.DefaultMaxTokens, cfg.Matching.MaxTokens)
	assert.Equal(t, 10, cfg.Server.QueryTimeoutSeconds)
}

func TestLoadEmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "matching:\n  scorrer: wratio\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[matching]\nscorrer = \"wratio\"\n"))
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "finlex.json", "{}"))
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty vocabulary path", func(c *Config) { c.Vocabulary.Path = " " }},
		{"unknown scorer", func(c *Config) { c.Matching.Scorer = "soundex" }},
		{"zero max ngram", func(c *Config) { c.Matching.MaxNGram = 0 }},
		{"threshold above 100", func(c *Config) { c.Matching.Thresholds.FullMatch = 101 }},
		{"negative floor", func(c *Config) { c.Matching.Thresholds.Floor = -1 }},
		{"negative cache", func(c *Config) { c.Matching.CacheSize = -1 }},
		{"negative concurrency", func(c *Config) { c.Server.MaxConcurrent = -4 }},
		{"max tokens below max ngram", func(c *Config) { c.Matching.MaxTokens = 3 }},
		{"negative body limit", func(c *Config) { c.Server.MaxBodyBytes = -1 }},
		{"negative query timeout", func(c *Config) { c.Server.QueryTimeoutSeconds = -1 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), internalerr.ErrInvalidConfig)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
