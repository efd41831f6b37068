package fuzzy

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
)

// EdlibScorer scores with one of go-edlib's normalized similarity
// algorithms. Inputs are normalized with Process first.
type EdlibScorer struct {
	Algorithm edlib.Algorithm
}

// Score implements Scorer. Algorithm errors (e.g. Hamming on unequal
// lengths) score 0.
func (s EdlibScorer) Score(a, b string) int {
	p1 := Process(a)
	p2 := Process(b)
	if p1 == "" || p2 == "" {
		return 0
	}
	if p1 == p2 {
		return 100
	}
	sim, err := edlib.StringsSimilarity(p1, p2, s.Algorithm)
	if err != nil {
		return 0
	}
	return roundScore(float64(sim) * 100)
}

var edlibAlgorithms = map[string]edlib.Algorithm{
	"levenshtein":         edlib.Levenshtein,
	"damerau-levenshtein": edlib.DamerauLevenshtein,
	"osa":                 edlib.OSADamerauLevenshtein,
	"lcs":                 edlib.Lcs,
	"hamming":             edlib.Hamming,
	"jaro":                edlib.Jaro,
	"jaro-winkler":        edlib.JaroWinkler,
	"cosine":              edlib.Cosine,
	"jaccard":             edlib.Jaccard,
	"sorensen-dice":       edlib.SorensenDice,
	"qgram":               edlib.Qgram,
}

// ScorerByName resolves a scorer from its configuration name. The empty
// name selects WRatio.
func ScorerByName(name string) (Scorer, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "wratio":
		return ScorerFunc(WRatio), nil
	case "ratio":
		return ScorerFunc(func(a, b string) int { return Ratio(Process(a), Process(b)) }), nil
	case "partial":
		return ScorerFunc(func(a, b string) int { return PartialRatio(Process(a), Process(b)) }), nil
	case "token-sort":
		return ScorerFunc(func(a, b string) int { return TokenSortRatio(Process(a), Process(b)) }), nil
	case "token-set":
		return ScorerFunc(func(a, b string) int { return TokenSetRatio(Process(a), Process(b)) }), nil
	default:
		algo, ok := edlibAlgorithms[n]
		if !ok {
			return nil, fmt.Errorf("scorer %q: %w", name, internalerr.ErrInvalidConfig)
		}
		return EdlibScorer{Algorithm: algo}, nil
	}
}
