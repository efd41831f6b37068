package ingest

import (
	"sort"
	"strings"
)

// DefaultMaxNGram is the longest span, in tokens, considered as a match candidate.
const DefaultMaxNGram = 6

// GenerateNGrams returns every contiguous span of 1..min(maxN, len(tokens))
// tokens joined by a single space. Spans are emitted by length ascending,
// then by start position.
func GenerateNGrams(tokens []string, maxN int) []string {
	L := len(tokens)
	if L == 0 || maxN <= 0 {
		return nil
	}
	if maxN > L {
		maxN = L
	}

	ngrams := make([]string, 0, ngramCount(L, maxN))
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= L; i++ {
			ngrams = append(ngrams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return ngrams
}

// OrderBySpan sorts ngrams in place so that longer spans come first.
// Equal-length spans keep their relative order.
func OrderBySpan(ngrams []string) []string {
	sort.SliceStable(ngrams, func(i, j int) bool {
		return spanLen(ngrams[i]) > spanLen(ngrams[j])
	})
	return ngrams
}

// ngramCount is sum_{n=1..m} (L-n+1).
func ngramCount(L, m int) int {
	return m*(L+1) - m*(m+1)/2
}

func spanLen(ngram string) int {
	if ngram == "" {
		return 0
	}
	return strings.Count(ngram, " ") + 1
}
