package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/finlex/pkg/finlex/fuzzy"
	"github.com/cognicore/finlex/pkg/finlex/ingest"
	"github.com/cognicore/finlex/pkg/finlex/internalerr"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// Thresholds is the acceptance policy, in similarity points (0..100).
type Thresholds struct {
	// FullMatch accepts the whole sentence as a candidate and skips the
	// n-gram scan.
	FullMatch int `yaml:"full_match" toml:"full_match"`
	// EarlyAccept stops the n-gram scan at the first span reaching it.
	EarlyAccept int `yaml:"early_accept" toml:"early_accept"`
	// Floor is the minimum best n-gram score accepted after a full scan.
	Floor int `yaml:"floor" toml:"floor"`
}

// DefaultThresholds trusts near-exact sentences most, then strong spans,
// then weaker spans as a last resort.
var DefaultThresholds = Thresholds{FullMatch: 82, EarlyAccept: 80, Floor: 70}

// Validate checks every threshold lies in 0..100.
func (t Thresholds) Validate() error {
	for name, v := range map[string]int{
		"full_match":   t.FullMatch,
		"early_accept": t.EarlyAccept,
		"floor":        t.Floor,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("threshold %s=%d outside 0..100: %w", name, v, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}

// DefaultMaxTokens is how many leading tokens of a sentence are matched.
// Later tokens are ignored.
const DefaultMaxTokens = 64

// Options configures an Extractor. Zero values select the defaults.
type Options struct {
	Matcher    *fuzzy.Matcher
	Thresholds Thresholds
	MaxNGram   int
	MaxTokens  int
}

// Extractor finds the single dictionary term a sentence is most likely
// asking about.
//
// It holds only read-only state and is safe for concurrent use.
type Extractor struct {
	vocab      *vocab.Vocabulary
	matcher    *fuzzy.Matcher
	tokenizer  *ingest.Tokenizer
	thresholds Thresholds
	maxNGram   int
	maxTokens  int
}

// New creates an extractor over v.
func New(v *vocab.Vocabulary, opts Options) *Extractor {
	if opts.Matcher == nil {
		opts.Matcher = fuzzy.NewMatcher(nil)
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds
	}
	if opts.MaxNGram <= 0 {
		opts.MaxNGram = ingest.DefaultMaxNGram
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Extractor{
		vocab:      v,
		matcher:    opts.Matcher,
		tokenizer:  ingest.NewTokenizer(),
		thresholds: opts.Thresholds,
		maxNGram:   opts.MaxNGram,
		maxTokens:  opts.MaxTokens,
	}
}

// Vocabulary returns the vocabulary the extractor matches against.
func (e *Extractor) Vocabulary() *vocab.Vocabulary {
	return e.vocab
}

// Extract returns the identified term, or false when none clears the
// thresholds. It never fails: empty, unmatchable or very long input all
// simply report false.
func (e *Extractor) Extract(sentence string) (string, bool) {
	tr := e.Explain(sentence)
	return tr.Term, tr.Matched
}

// Explain runs the same decision as Extract and records how it was made.
func (e *Extractor) Explain(sentence string) Trace {
	tr, _ := e.ExplainContext(context.Background(), sentence)
	return tr
}

// ExplainContext is Explain bounded by ctx. When ctx is done before a
// decision it returns ctx.Err() and the partial trace.
func (e *Extractor) ExplainContext(ctx context.Context, sentence string) (Trace, error) {
	tr := Trace{Input: sentence}

	tr.enter(StateEmpty)
	if strings.TrimSpace(sentence) == "" {
		return tr.finish(StateNoMatch), nil
	}
	tr.Tokens = e.tokenizer.Tokenize(sentence)
	if len(tr.Tokens) > e.maxTokens {
		tr.Tokens = tr.Tokens[:e.maxTokens]
		tr.Truncated = true
	}
	if len(tr.Tokens) == 0 || e.vocab == nil {
		return tr.finish(StateNoMatch), nil
	}
	candidates := e.vocab.Candidates()

	tr.enter(StateFullMatchAttempt)
	full := strings.Join(tr.Tokens, " ")
	m, ok, err := e.matcher.BestMatchContext(ctx, full, candidates)
	if err != nil {
		return tr, err
	}
	if ok {
		tr.FullScore = m.Score
		if m.Score >= e.thresholds.FullMatch {
			tr.accept(e.vocab, full, m)
			return tr.finish(StateMatched), nil
		}
	}

	tr.enter(StateNGramScan)
	ngrams := ingest.OrderBySpan(ingest.GenerateNGrams(tr.Tokens, e.maxNGram))

	var best fuzzy.Match
	var bestQuery string
	for _, ng := range ngrams {
		m, ok, err := e.matcher.BestMatchContext(ctx, ng, candidates)
		if err != nil {
			return tr, err
		}
		tr.Scanned++
		if !ok || m.Score <= best.Score {
			continue
		}
		best, bestQuery = m, ng
		if best.Score >= e.thresholds.EarlyAccept {
			tr.accept(e.vocab, bestQuery, best)
			return tr.finish(StateMatched), nil
		}
	}

	tr.enter(StateThresholdDecision)
	if best.Score > 0 && best.Score >= e.thresholds.Floor {
		tr.accept(e.vocab, bestQuery, best)
		return tr.finish(StateMatched), nil
	}
	tr.Query, tr.Candidate, tr.Score = bestQuery, best.Candidate, best.Score
	return tr.finish(StateNoMatch), nil
}
