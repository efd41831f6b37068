package fuzzy

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Scorer rates the similarity of two strings on a 0..100 scale, where 100
// means identical after normalization. Implementations must be pure: the
// same inputs always produce the same score.
type Scorer interface {
	Score(a, b string) int
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(a, b string) int

// Score implements Scorer.
func (f ScorerFunc) Score(a, b string) int { return f(a, b) }

const (
	unbaseScale      = 0.95
	partialScale     = 0.90
	longPartialScale = 0.60
)

// WRatio is the default scorer. It takes the best of several ratios,
// weighting partial and token-order-insensitive ratios slightly lower than
// a direct comparison. When one string is at least 1.5 times as long as
// the other, substring alignment is considered, so "what is ebitda" scores
// well against "ebitda".
func WRatio(a, b string) int {
	p1 := Process(a)
	p2 := Process(b)
	if p1 == "" || p2 == "" {
		return 0
	}

	base := float64(Ratio(p1, p2))

	l1 := utf8.RuneCountInString(p1)
	l2 := utf8.RuneCountInString(p2)
	lenRatio := float64(max(l1, l2)) / float64(min(l1, l2))

	if lenRatio < 1.5 {
		tsor := float64(TokenSortRatio(p1, p2)) * unbaseScale
		tser := float64(TokenSetRatio(p1, p2)) * unbaseScale
		return roundScore(max(base, tsor, tser))
	}

	pscale := partialScale
	if lenRatio > 8 {
		pscale = longPartialScale
	}
	partial := float64(PartialRatio(p1, p2)) * pscale
	ptsor := float64(partialTokenSortRatio(p1, p2)) * unbaseScale * pscale
	ptser := float64(partialTokenSetRatio(p1, p2)) * unbaseScale * pscale
	return roundScore(max(base, partial, ptsor, ptser))
}

// Ratio is the indel similarity of a and b: twice the length of their
// longest common subsequence over their combined length.
func Ratio(a, b string) int {
	return roundScore(ratio(a, b) * 100)
}

func ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(la+lb)
}

// PartialRatio aligns the shorter string against the longer one at each
// block of the longest common subsequence and returns the best window
// ratio. A window running past the end of the longer string is cut short.
func PartialRatio(a, b string) int {
	if a == b {
		return 100
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	s := string(short)
	best := 0.0
	for _, blk := range matchingBlocks(short, long) {
		start := max(blk.b-blk.a, 0)
		end := min(start+len(short), len(long))
		r := ratio(s, string(long[start:end]))
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return roundScore(best * 100)
}

// block is a run of size equal runes at a[a:] and b[b:].
type block struct {
	a, b, size int
}

// matchingBlocks returns the runs of aligned runes in a longest common
// subsequence alignment of a and b, ending with the empty block
// {len(a), len(b), 0}. Equal runes are matched as early as possible.
func matchingBlocks(a, b []rune) []block {
	n, m := len(a), len(b)
	w := m + 1
	// suffix[i*w+j] is the LCS length of a[i:] and b[j:].
	suffix := make([]int, (n+1)*w)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				suffix[i*w+j] = suffix[(i+1)*w+j+1] + 1
			} else {
				suffix[i*w+j] = max(suffix[(i+1)*w+j], suffix[i*w+j+1])
			}
		}
	}

	var blocks []block
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			if k := len(blocks) - 1; k >= 0 && blocks[k].a+blocks[k].size == i && blocks[k].b+blocks[k].size == j {
				blocks[k].size++
			} else {
				blocks = append(blocks, block{a: i, b: j, size: 1})
			}
			i++
			j++
		case suffix[(i+1)*w+j] >= suffix[i*w+j+1]:
			i++
		default:
			j++
		}
	}
	return append(blocks, block{a: n, b: m})
}

// TokenSortRatio compares a and b after sorting their tokens.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

func partialTokenSortRatio(a, b string) int {
	return PartialRatio(sortTokens(a), sortTokens(b))
}

// TokenSetRatio compares the shared tokens of a and b against each side's
// shared-plus-remaining tokens, so extra words on one side cost little.
func TokenSetRatio(a, b string) int {
	return tokenSetScore(a, b, Ratio)
}

func partialTokenSetRatio(a, b string) int {
	return tokenSetScore(a, b, PartialRatio)
}

func tokenSetScore(a, b string, score func(string, string) int) int {
	sect, onlyA, onlyB := tokenSet(a, b)
	combinedA := strings.TrimSpace(sect + " " + onlyA)
	combinedB := strings.TrimSpace(sect + " " + onlyB)

	return max(
		score(sect, combinedA),
		score(sect, combinedB),
		score(combinedA, combinedB),
	)
}

// roundScore rounds half to even and clamps to 0..100.
func roundScore(v float64) int {
	n := int(math.RoundToEven(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
