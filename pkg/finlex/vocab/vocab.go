package vocab

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Entry is one dictionary row: a term, its definition, and optional
// alternate spellings (acronyms, expansions) that should resolve to it.
type Entry struct {
	Term       string   `json:"term" yaml:"term"`
	Definition string   `json:"definition" yaml:"definition"`
	Aliases    []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Vocabulary is the read-only term dictionary.
//
// Terms are stored lowercased, in first-insertion order. Match candidates
// are the terms followed by aliases; every candidate resolves to a term
// through Canonical, so anything matched is a key of the dictionary.
// A Vocabulary is never mutated after Build and is safe to share.
type Vocabulary struct {
	terms       []string
	defs        map[string]string
	candidates  []string
	canonical   map[string]string
	fingerprint uint64
}

// Terms returns the terms in insertion order. Callers must not modify it.
func (v *Vocabulary) Terms() []string {
	return v.terms
}

// Candidates returns the strings the fuzzy matcher should score: all terms,
// then all aliases. Callers must not modify it.
func (v *Vocabulary) Candidates() []string {
	return v.candidates
}

// Canonical maps a match candidate back to its term.
func (v *Vocabulary) Canonical(candidate string) (string, bool) {
	term, ok := v.canonical[candidate]
	return term, ok
}

// Definition looks up a term case-insensitively.
func (v *Vocabulary) Definition(term string) (string, bool) {
	if term == "" {
		return "", false
	}
	def, ok := v.defs[normalizeKey(term)]
	return def, ok
}

// Contains reports whether term is a key of the vocabulary.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.defs[normalizeKey(term)]
	return ok
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// AliasCount returns the number of aliases that resolve to a term.
func (v *Vocabulary) AliasCount() int {
	return len(v.candidates) - len(v.terms)
}

// Fingerprint identifies the vocabulary contents. Two vocabularies with the
// same terms, definitions and aliases in the same order share a fingerprint.
func (v *Vocabulary) Fingerprint() uint64 {
	return v.fingerprint
}

// Entries returns the vocabulary as entries, aliases grouped under their term.
func (v *Vocabulary) Entries() []Entry {
	aliases := make(map[string][]string)
	for _, cand := range v.candidates[len(v.terms):] {
		term := v.canonical[cand]
		aliases[term] = append(aliases[term], cand)
	}
	entries := make([]Entry, len(v.terms))
	for i, term := range v.terms {
		entries[i] = Entry{Term: term, Definition: v.defs[term], Aliases: aliases[term]}
	}
	return entries
}

// Builder accumulates entries for a Vocabulary.
type Builder struct {
	terms   []string
	defs    map[string]string
	aliases []aliasPair
}

type aliasPair struct {
	alias string
	term  string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{defs: make(map[string]string)}
}

// Add records a term and its definition. A repeated term keeps its first
// position and takes the latest definition. Blank terms are ignored.
func (b *Builder) Add(term, definition string) {
	key := normalizeKey(term)
	if key == "" {
		return
	}
	if _, exists := b.defs[key]; !exists {
		b.terms = append(b.terms, key)
	}
	b.defs[key] = definition
}

// AddAlias makes alias resolve to term. Aliases whose term is never added,
// or which collide with a real term, are dropped by Build.
func (b *Builder) AddAlias(term, alias string) {
	key := normalizeKey(term)
	a := normalizeKey(alias)
	if key == "" || a == "" || a == key {
		return
	}
	b.aliases = append(b.aliases, aliasPair{alias: a, term: key})
}

// AddEntry records an entry with its aliases.
func (b *Builder) AddEntry(e Entry) {
	b.Add(e.Term, e.Definition)
	for _, a := range e.Aliases {
		b.AddAlias(e.Term, a)
	}
}

// Build freezes the accumulated entries. The builder may be reused but
// further changes do not affect the returned Vocabulary.
func (b *Builder) Build() *Vocabulary {
	v := &Vocabulary{
		terms:     append([]string(nil), b.terms...),
		defs:      make(map[string]string, len(b.defs)),
		canonical: make(map[string]string, len(b.terms)+len(b.aliases)),
	}
	for k, d := range b.defs {
		v.defs[k] = d
	}

	v.candidates = make([]string, 0, len(b.terms)+len(b.aliases))
	for _, term := range v.terms {
		v.candidates = append(v.candidates, term)
		v.canonical[term] = term
	}
	// Later alias declarations win, matching the definition rule.
	aliasTerm := make(map[string]string)
	var aliasOrder []string
	for _, p := range b.aliases {
		if _, isTerm := v.defs[p.alias]; isTerm {
			continue
		}
		if _, ok := v.defs[p.term]; !ok {
			continue
		}
		if _, seen := aliasTerm[p.alias]; !seen {
			aliasOrder = append(aliasOrder, p.alias)
		}
		aliasTerm[p.alias] = p.term
	}
	for _, a := range aliasOrder {
		v.candidates = append(v.candidates, a)
		v.canonical[a] = aliasTerm[a]
	}

	v.fingerprint = fingerprint(v)
	return v
}

func fingerprint(v *Vocabulary) uint64 {
	d := xxhash.New()
	for _, term := range v.terms {
		_, _ = d.WriteString(term)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(v.defs[term])
		_, _ = d.WriteString("\x01")
	}
	for _, cand := range v.candidates[len(v.terms):] {
		_, _ = d.WriteString(cand)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(v.canonical[cand])
		_, _ = d.WriteString("\x01")
	}
	return d.Sum64()
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
