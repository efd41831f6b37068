package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/finlex/pkg/finlex/extract"
	"github.com/cognicore/finlex/pkg/finlex/fuzzy"
	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

const (
	defaultVocabularyPath = "financial_terms_100k_realistic_style.csv"
	defaultScorer         = "wratio"
	defaultMaxNGram       = 6
	defaultMaxTokens      = extract.DefaultMaxTokens
	defaultCacheSize      = 4096
	defaultServerAddr     = ":8000"
	defaultShutdownSecs   = 5
	defaultMaxBodyBytes   = 64 << 10
	defaultQuerySecs      = 10
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// Config is the complete service configuration.
type Config struct {
	Vocabulary Vocabulary `yaml:"vocabulary" toml:"vocabulary"`
	Matching   Matching   `yaml:"matching" toml:"matching"`
	Server     Server     `yaml:"server" toml:"server"`
	Store      Store      `yaml:"store" toml:"store"`
	Logging    Logging    `yaml:"logging" toml:"logging"`
}

// Vocabulary locates the term dictionary: a .csv, .yaml, .jsonl or .html
// file, or a .db SQLite store previously filled by `finlex import`.
type Vocabulary struct {
	Path string `yaml:"path" toml:"path"`
}

// Matching configures term extraction.
type Matching struct {
	Scorer     string             `yaml:"scorer" toml:"scorer"`
	MaxNGram   int                `yaml:"max_ngram" toml:"max_ngram"`
	Thresholds extract.Thresholds `yaml:"thresholds" toml:"thresholds"`
	// MaxTokens drops words past this count before matching.
	MaxTokens int `yaml:"max_tokens" toml:"max_tokens"`
	// Parallelism caps goroutines per match; 0 uses GOMAXPROCS.
	Parallelism int `yaml:"parallelism" toml:"parallelism"`
	CacheSize   int `yaml:"cache_size" toml:"cache_size"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `yaml:"addr" toml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
	// MaxConcurrent bounds in-flight queries; 0 uses GOMAXPROCS.
	MaxConcurrent       int   `yaml:"max_concurrent" toml:"max_concurrent"`
	MaxBodyBytes        int64 `yaml:"max_body_bytes" toml:"max_body_bytes"`
	QueryTimeoutSeconds int   `yaml:"query_timeout_seconds" toml:"query_timeout_seconds"`
	ShutdownSeconds     int   `yaml:"shutdown_seconds" toml:"shutdown_seconds"`
}

// Store configures lookup history persistence. An empty path disables it.
type Store struct {
	Path string `yaml:"path" toml:"path"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // auto, text, json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Vocabulary: Vocabulary{Path: defaultVocabularyPath},
		Matching: Matching{
			Scorer:     defaultScorer,
			MaxNGram:   defaultMaxNGram,
			Thresholds: extract.DefaultThresholds,
			MaxTokens:  defaultMaxTokens,
			CacheSize:  defaultCacheSize,
		},
		Server: Server{
			Addr:                defaultServerAddr,
			AllowedOrigins:      []string{"*"},
			MaxBodyBytes:        defaultMaxBodyBytes,
			QueryTimeoutSeconds: defaultQuerySecs,
			ShutdownSeconds:     defaultShutdownSecs,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// Load reads a YAML or TOML file (by extension) over the defaults and
// validates the result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension: %w", path, internalerr.ErrInvalidConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the service cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vocabulary.Path) == "" {
		return fmt.Errorf("vocabulary.path is required: %w", internalerr.ErrInvalidConfig)
	}
	if _, err := fuzzy.ScorerByName(c.Matching.Scorer); err != nil {
		return err
	}
	if c.Matching.MaxNGram < 1 {
		return fmt.Errorf("matching.max_ngram must be positive: %w", internalerr.ErrInvalidConfig)
	}
	if c.Matching.MaxTokens < c.Matching.MaxNGram {
		return fmt.Errorf("matching.max_tokens must be at least max_ngram: %w", internalerr.ErrInvalidConfig)
	}
	if err := c.Matching.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Matching.Parallelism < 0 || c.Matching.CacheSize < 0 || c.Server.MaxConcurrent < 0 {
		return fmt.Errorf("negative parallelism, cache size or concurrency: %w", internalerr.ErrInvalidConfig)
	}
	if c.Server.MaxBodyBytes < 0 || c.Server.QueryTimeoutSeconds < 0 {
		return fmt.Errorf("negative server body limit or query timeout: %w", internalerr.ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format %q: %w", c.Logging.Format, internalerr.ErrInvalidConfig)
	}
	return nil
}
