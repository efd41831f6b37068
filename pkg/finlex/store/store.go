package store

import (
	"context"
	"time"

	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// Store persists the dictionary and the lookup history.
type Store interface {
	Close() error

	// Dictionary
	UpsertEntries(ctx context.Context, entries []vocab.Entry) (int, error)
	Load(ctx context.Context) ([]vocab.Entry, error)
	CountTerms(ctx context.Context) (int64, error)

	// Lookups
	LookupRecorder
	RecentLookups(ctx context.Context, limit int) ([]Lookup, error)
	TopTerms(ctx context.Context, limit int) ([]TermCount, error)
}

// LookupRecorder records answered queries.
type LookupRecorder interface {
	RecordLookup(ctx context.Context, l Lookup) error
}

// Lookup is one answered query.
type Lookup struct {
	ID      string
	Input   string
	Term    string // empty when nothing matched
	Outcome string // matched, no_definition, no_match
	Score   int
	At      time.Time
}

// TermCount is how often a term was the answer.
type TermCount struct {
	Term  string
	Count int64
}
