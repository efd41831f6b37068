package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits free text into lowercase word tokens.
//
// A token is a maximal run of letters, digits and underscores. Every other
// rune (punctuation, whitespace, symbols) separates tokens and is dropped.
// Unlike an indexing tokenizer there is no stopword or length filtering:
// "what is a p/e ratio" keeps "what", "is", "a", "p", "e" and "ratio",
// because every span is a potential match candidate.
type Tokenizer struct{}

// NewTokenizer creates a tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize returns the tokens of text in left-to-right order.
// Empty and whitespace-only input yields an empty (nil) slice.
func (t *Tokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder

	for _, r := range strings.ToLower(norm.NFC.String(text)) {
		if isWordRune(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	// Don't forget the last token
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// Tokenize is a convenience wrapper around a zero-value Tokenizer.
func Tokenize(text string) []string {
	return (&Tokenizer{}).Tokenize(text)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
