package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cognicore/finlex/pkg/finlex"
	"github.com/cognicore/finlex/pkg/finlex/extract"
	"github.com/cognicore/finlex/pkg/finlex/fuzzy"
	"github.com/cognicore/finlex/pkg/finlex/store"
	"github.com/cognicore/finlex/pkg/finlex/store/sqlite"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// Loader builds the service components from a configuration.
type Loader struct {
	Config *Config
	Logger *slog.Logger
}

// Components holds everything the loader constructed.
type Components struct {
	Vocabulary *vocab.Vocabulary
	Service    *finlex.Service
	// Store is the lookup history store; nil when disabled.
	Store store.Store

	closers []func() error
}

// Close releases any stores the loader opened.
func (c *Components) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// IsStorePath reports whether path names a SQLite database rather than a
// flat dictionary file.
func IsStorePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Load reads the vocabulary and wires the service.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		def := Default()
		cfg = &def
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	comp := &Components{}
	stores := make(map[string]store.Store)
	openStore := func(path string) (store.Store, error) {
		if s, ok := stores[path]; ok {
			return s, nil
		}
		s, err := sqlite.OpenSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", path, err)
		}
		stores[path] = s
		comp.closers = append(comp.closers, s.Close)
		return s, nil
	}

	// Load vocabulary
	var src vocab.Source
	if IsStorePath(cfg.Vocabulary.Path) {
		s, err := openStore(cfg.Vocabulary.Path)
		if err != nil {
			return nil, err
		}
		src = s
	} else {
		s, err := vocab.SourceForPath(cfg.Vocabulary.Path)
		if err != nil {
			return nil, err
		}
		src = s
	}
	v, err := vocab.Load(ctx, src)
	if err != nil {
		comp.Close()
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	comp.Vocabulary = v

	// Lookup history
	if cfg.Store.Path != "" {
		s, err := openStore(cfg.Store.Path)
		if err != nil {
			comp.Close()
			return nil, err
		}
		comp.Store = s
	}

	// Matching
	scorer, err := fuzzy.ScorerByName(cfg.Matching.Scorer)
	if err != nil {
		comp.Close()
		return nil, err
	}
	var matcherOpts []fuzzy.Option
	if cfg.Matching.Parallelism > 0 {
		matcherOpts = append(matcherOpts, fuzzy.WithParallelism(cfg.Matching.Parallelism))
	}

	svcOpts := finlex.Options{
		Vocabulary: v,
		Extract: extract.Options{
			Matcher:    fuzzy.NewMatcher(scorer, matcherOpts...),
			Thresholds: cfg.Matching.Thresholds,
			MaxNGram:   cfg.Matching.MaxNGram,
			MaxTokens:  cfg.Matching.MaxTokens,
		},
		CacheSize: cfg.Matching.CacheSize,
		Logger:    logger,
	}
	if comp.Store != nil {
		svcOpts.Recorder = comp.Store
	}
	svc, err := finlex.New(svcOpts)
	if err != nil {
		comp.Close()
		return nil, err
	}
	comp.Service = svc

	logger.Info("vocabulary loaded",
		slog.String("path", cfg.Vocabulary.Path),
		slog.Int("terms", v.Len()),
		slog.Int("aliases", v.AliasCount()),
		slog.String("scorer", cfg.Matching.Scorer))

	return comp, nil
}
