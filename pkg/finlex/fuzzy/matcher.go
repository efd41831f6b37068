package fuzzy

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Match is the best-scoring candidate for a query.
type Match struct {
	Candidate string
	Index     int // position in the candidate slice
	Score     int
}

// Matcher picks the best candidate for a query using a Scorer.
//
// Ties on score go to the candidate that appears first in the slice, both
// for the sequential scan and for the chunked parallel scan used on large
// candidate lists. A Matcher holds no mutable state and is safe for
// concurrent use.
type Matcher struct {
	scorer      Scorer
	parallelism int
	chunkSize   int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithParallelism caps the number of goroutines scoring one query.
// Values below 2 force a sequential scan.
func WithParallelism(n int) Option {
	return func(m *Matcher) { m.parallelism = n }
}

// WithChunkSize sets how many candidates each goroutine scores.
func WithChunkSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// DefaultChunkSize is the per-goroutine candidate count.
const DefaultChunkSize = 2048

// NewMatcher creates a matcher. A nil scorer selects WRatio.
func NewMatcher(scorer Scorer, opts ...Option) *Matcher {
	if scorer == nil {
		scorer = ScorerFunc(WRatio)
	}
	m := &Matcher{
		scorer:      scorer,
		parallelism: runtime.GOMAXPROCS(0),
		chunkSize:   DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scorer returns the scorer in use.
func (m *Matcher) Scorer() Scorer {
	return m.scorer
}

// BestMatch scores query against every candidate and returns the highest
// scoring one. It reports false only when candidates is empty.
func (m *Matcher) BestMatch(query string, candidates []string) (Match, bool) {
	best, ok, _ := m.BestMatchContext(context.Background(), query, candidates)
	return best, ok
}

// ctxCheckEvery is how many candidates are scored between checks of the
// context.
const ctxCheckEvery = 256

// BestMatchContext is BestMatch that stops early with ctx.Err() once ctx
// is done.
func (m *Matcher) BestMatchContext(ctx context.Context, query string, candidates []string) (Match, bool, error) {
	if len(candidates) == 0 {
		return Match{}, false, nil
	}
	if m.parallelism < 2 || len(candidates) <= m.chunkSize {
		best, err := m.scan(ctx, query, candidates, 0)
		if err != nil {
			return Match{}, false, err
		}
		return best, true, nil
	}

	numChunks := (len(candidates) + m.chunkSize - 1) / m.chunkSize
	results := make([]Match, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for c := 0; c < numChunks; c++ {
		lo := c * m.chunkSize
		hi := min(lo+m.chunkSize, len(candidates))
		g.Go(func() error {
			r, err := m.scan(gctx, query, candidates[lo:hi], lo)
			results[c] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Match{}, false, err
	}

	// Merge in chunk order with a strict comparison so the earliest
	// candidate keeps a tie, same as the sequential scan.
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true, nil
}

// scan is the sequential best-of-N over candidates; offset is the index of
// candidates[0] in the caller's slice.
func (m *Matcher) scan(ctx context.Context, query string, candidates []string, offset int) (Match, error) {
	best := Match{Candidate: candidates[0], Index: offset, Score: -1}
	for i, cand := range candidates {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Match{}, err
			}
		}
		score := m.scorer.Score(query, cand)
		if score > best.Score {
			best = Match{Candidate: cand, Index: offset + i, Score: score}
			if score >= 100 {
				break
			}
		}
	}
	return best, nil
}
