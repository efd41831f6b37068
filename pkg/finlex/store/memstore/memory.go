package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
	"github.com/cognicore/finlex/pkg/finlex/store"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	order   []string
	defs    map[string]string
	aliases map[string][]string
	lookups []store.Lookup
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		defs:    make(map[string]string),
		aliases: make(map[string][]string),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertEntries implements store.Store.
func (s *Store) UpsertEntries(ctx context.Context, entries []vocab.Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range entries {
		term := strings.ToLower(strings.TrimSpace(e.Term))
		if term == "" {
			continue
		}
		if _, ok := s.defs[term]; !ok {
			s.order = append(s.order, term)
		}
		s.defs[term] = e.Definition
		for _, a := range e.Aliases {
			alias := strings.ToLower(strings.TrimSpace(a))
			if alias != "" && alias != term && !contains(s.aliases[term], alias) {
				s.aliases[term] = append(s.aliases[term], alias)
			}
		}
		n++
	}
	return n, nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) ([]vocab.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]vocab.Entry, len(s.order))
	for i, term := range s.order {
		entries[i] = vocab.Entry{
			Term:       term,
			Definition: s.defs[term],
			Aliases:    append([]string(nil), s.aliases[term]...),
		}
	}
	return entries, nil
}

// CountTerms implements store.Store.
func (s *Store) CountTerms(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.order)), nil
}

// RecordLookup implements store.Store.
func (s *Store) RecordLookup(ctx context.Context, l store.Lookup) error {
	if l.ID == "" {
		return internalerr.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, l)
	return nil
}

// RecentLookups implements store.Store.
func (s *Store) RecentLookups(ctx context.Context, limit int) ([]store.Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	out := make([]store.Lookup, 0, min(limit, len(s.lookups)))
	for i := len(s.lookups) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.lookups[i])
	}
	return out, nil
}

// TopTerms implements store.Store.
func (s *Store) TopTerms(ctx context.Context, limit int) ([]store.TermCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, l := range s.lookups {
		if l.Term != "" {
			counts[l.Term]++
		}
	}
	out := make([]store.TermCount, 0, len(counts))
	for term, n := range counts {
		out = append(out, store.TermCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	if limit <= 0 {
		limit = 10
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
