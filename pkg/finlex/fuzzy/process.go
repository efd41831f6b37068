package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Process normalizes s for scoring. Runes U+0080..U+00FF (Latin-1
// punctuation and accented letters) are dropped, every other rune that is
// not a letter, digit or underscore becomes a space, the rest is lowercased
// and the result is trimmed. Inner runs of spaces are kept as-is; token
// based scorers split on them.
func Process(s string) string {
	if s == "" {
		return ""
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 0x80 && r <= 0xff:
			return -1
		case r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.TrimSpace(mapped)
}

// sortTokens returns the whitespace tokens of s sorted and re-joined.
func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// tokenSet splits a and b into their sorted intersection and the sorted
// remainders of each side.
func tokenSet(a, b string) (sect, onlyA, onlyB string) {
	setA := uniqueFields(a)
	setB := uniqueFields(b)

	var both, diffA, diffB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			both = append(both, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(both)
	sort.Strings(diffA)
	sort.Strings(diffB)

	return strings.Join(both, " "), strings.Join(diffA, " "), strings.Join(diffB, " ")
}

func uniqueFields(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
