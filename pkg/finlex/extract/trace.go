package extract

import (
	"github.com/cognicore/finlex/pkg/finlex/fuzzy"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// State is a step of one extraction.
type State int

const (
	StateEmpty State = iota
	StateFullMatchAttempt
	StateNGramScan
	StateThresholdDecision
	StateMatched
	StateNoMatch
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFullMatchAttempt:
		return "full_match_attempt"
	case StateNGramScan:
		return "ngram_scan"
	case StateThresholdDecision:
		return "threshold_decision"
	case StateMatched:
		return "matched"
	case StateNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Trace explains one extraction.
type Trace struct {
	Input  string
	Tokens []string
	States []State

	// Truncated reports that tokens past the extractor's limit were dropped.
	Truncated bool

	// FullScore is the whole-sentence score, 0 if not attempted.
	FullScore int
	// Scanned counts n-grams scored before the decision.
	Scanned int

	// Query is the sentence or n-gram that produced the deciding match,
	// Candidate the vocabulary string it matched (a term or an alias) and
	// Score their similarity. On no match they describe the best attempt.
	Query     string
	Candidate string
	Score     int

	Term    string
	Matched bool
}

// Final returns the terminal state.
func (t Trace) Final() State {
	if len(t.States) == 0 {
		return StateEmpty
	}
	return t.States[len(t.States)-1]
}

func (t *Trace) enter(s State) {
	t.States = append(t.States, s)
}

func (t *Trace) accept(v *vocab.Vocabulary, query string, m fuzzy.Match) {
	term, ok := v.Canonical(m.Candidate)
	if !ok {
		return
	}
	t.Query, t.Candidate, t.Score = query, m.Candidate, m.Score
	t.Term = term
	t.Matched = true
}

func (t Trace) finish(s State) Trace {
	if s == StateMatched && !t.Matched {
		s = StateNoMatch
	}
	t.enter(s)
	return t
}
