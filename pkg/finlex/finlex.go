package finlex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/finlex/pkg/finlex/extract"
	"github.com/cognicore/finlex/pkg/finlex/ingest"
	"github.com/cognicore/finlex/pkg/finlex/store"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// NoMatchMessage is returned when no term can be identified.
const NoMatchMessage = "Could not identify a financial term. Try asking directly (e.g., 'What is EBITDA?')"

// Outcome classifies an answer.
type Outcome int

const (
	// OutcomeNoMatch means no term cleared the thresholds.
	OutcomeNoMatch Outcome = iota
	// OutcomeNoDefinition means a term matched but has no definition.
	OutcomeNoDefinition
	// OutcomeMatched means a term and its definition were found.
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoDefinition:
		return "no_definition"
	default:
		return "no_match"
	}
}

// Answer is the formatted result for one query.
type Answer struct {
	Outcome    Outcome
	Term       string
	Definition string
	Score      int
	Message    string
}

// Service is the financial dictionary facade: term extraction, definition
// lookup and the human-readable answer built from them.
type Service struct {
	vocab     *vocab.Vocabulary
	extractor *extract.Extractor
	cache     *lru.Cache[string, extract.Trace]
	recorder  store.LookupRecorder
	ids       *store.IDGenerator
	logger    *slog.Logger
}

// Options configures a Service.
type Options struct {
	Vocabulary *vocab.Vocabulary
	Extract    extract.Options
	// CacheSize bounds the answer cache; zero disables it.
	CacheSize int
	// Recorder, when set, receives every answered query.
	Recorder store.LookupRecorder
	Logger   *slog.Logger
}

// New creates a Service with the given dependencies.
func New(opts Options) (*Service, error) {
	if opts.Vocabulary == nil {
		return nil, errors.New("finlex: vocabulary required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		vocab:     opts.Vocabulary,
		extractor: extract.New(opts.Vocabulary, opts.Extract),
		recorder:  opts.Recorder,
		ids:       store.NewIDGenerator(),
		logger:    opts.Logger,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, extract.Trace](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("answer cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Vocabulary returns the dictionary in use.
func (s *Service) Vocabulary() *vocab.Vocabulary {
	return s.vocab
}

// ExtractTerm identifies the term a sentence asks about.
func (s *Service) ExtractTerm(sentence string) (string, bool) {
	tr := s.Explain(sentence)
	return tr.Term, tr.Matched
}

// Explain returns the extraction trace for sentence. Results are cached by
// token sequence, which fully determines the outcome.
func (s *Service) Explain(sentence string) extract.Trace {
	tr, _ := s.ExplainContext(context.Background(), sentence)
	return tr
}

// ExplainContext is Explain bounded by ctx. Interrupted extractions are
// not cached.
func (s *Service) ExplainContext(ctx context.Context, sentence string) (extract.Trace, error) {
	if s.cache == nil {
		return s.extractor.ExplainContext(ctx, sentence)
	}

	key := strings.Join(ingest.Tokenize(sentence), " ")
	if tr, ok := s.cache.Get(key); ok {
		tr.Input = sentence
		return tr, nil
	}
	tr, err := s.extractor.ExplainContext(ctx, sentence)
	if err != nil {
		return tr, err
	}
	s.cache.Add(key, tr)
	return tr, nil
}

// Definition returns the definition of term, case-insensitively. The empty
// term has no definition.
func (s *Service) Definition(term string) (string, bool) {
	return s.vocab.Definition(term)
}

// Lookup answers for an exact term or alias, case-insensitively, without
// fuzzy matching. It reports false when the vocabulary has no such key.
func (s *Service) Lookup(term string) (Answer, bool) {
	key := strings.ToLower(strings.TrimSpace(term))
	if canonical, ok := s.vocab.Canonical(key); ok {
		key = canonical
	}
	if !s.vocab.Contains(key) {
		return Answer{}, false
	}
	return FormatAnswer(key, true, s.Definition), true
}

// Answer extracts a term from input and formats the response. It fails
// only when ctx is done before the term is decided; such queries are not
// recorded.
func (s *Service) Answer(ctx context.Context, input string) (Answer, error) {
	tr, err := s.ExplainContext(ctx, input)
	if err != nil {
		return Answer{}, err
	}
	ans := FormatAnswer(tr.Term, tr.Matched, s.Definition)
	ans.Score = tr.Score

	s.logger.Debug("answered query",
		slog.String("outcome", ans.Outcome.String()),
		slog.String("term", ans.Term),
		slog.Int("score", tr.Score),
		slog.Int("ngrams_scanned", tr.Scanned),
		slog.Bool("truncated", tr.Truncated))

	if s.recorder != nil {
		err := s.recorder.RecordLookup(ctx, store.Lookup{
			ID:      s.ids.New(),
			Input:   input,
			Term:    ans.Term,
			Outcome: ans.Outcome.String(),
			Score:   tr.Score,
			At:      time.Now(),
		})
		if err != nil {
			s.logger.Warn("record lookup failed", slog.String("error", err.Error()))
		}
	}
	return ans, nil
}

// FormatAnswer builds the answer for an extraction result using lookup to
// fetch the definition. An empty definition counts as missing.
func FormatAnswer(term string, matched bool, lookup func(string) (string, bool)) Answer {
	if !matched || term == "" {
		return Answer{Outcome: OutcomeNoMatch, Message: NoMatchMessage}
	}
	def, ok := lookup(term)
	if !ok || def == "" {
		return Answer{
			Outcome: OutcomeNoDefinition,
			Term:    term,
			Message: fmt.Sprintf("Term found: '%s' → no definition.", term),
		}
	}
	return Answer{
		Outcome:    OutcomeMatched,
		Term:       term,
		Definition: def,
		Message:    fmt.Sprintf("**%s**\n\n%s", strings.ToUpper(term), def),
	}
}
