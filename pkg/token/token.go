// Package token implements the n-gram tokenizer shared by index build and
// query. Any divergence between the two call sites would break scoring, so
// both the inverted-index builder and the query engine call Tokenize.
package token

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// lowerCaser performs Unicode-aware lowercasing, the same x/text/cases
// package the teacher uses for case transformation (pkg/manager/release.go's
// titleCase helper uses cases.Title; normalization instead needs the Lower
// form, language.Und since title names carry no single fixed locale).
var lowerCaser = cases.Lower(language.Und)

// Sentinel pads word boundaries in the n-gram stream. Word splitting drops
// every rune that is not a letter or digit, so it can never collide with a
// real character inside a word.
const Sentinel = '\x01'

// Normalize applies the pipeline's first stage: NFKC normalization
// followed by lowercasing. Exposed on its own so callers (and the
// idempotence property in tests) can apply it independent of n-gram
// extraction.
func Normalize(s string) string {
	return lowerCaser.String(norm.NFKC.String(s))
}

// Tokenize normalizes s, splits it into words on runs of non-alphanumeric
// runes, and emits the character n-grams of size n for each word, with
// each word's boundaries padded by n-1 Sentinel runes. The result is a
// multiset: repeated n-grams are repeated in the output, since callers
// need term frequency, not a distinct vocabulary.
func Tokenize(s string, n int) []string {
	if n < 1 {
		n = 1
	}
	words := splitWords(Normalize(s))
	var out []string
	for _, w := range words {
		out = append(out, ngrams(w, n)...)
	}
	return out
}

// Frequencies collapses a token stream into term counts, the per-document
// (tf) input to the scorer and to the index builder's spill records.
func Frequencies(tokens []string) map[string]uint32 {
	freq := make(map[string]uint32, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func ngrams(word string, n int) []string {
	runes := []rune(word)
	padded := make([]rune, 0, len(runes)+2*(n-1))
	for i := 0; i < n-1; i++ {
		padded = append(padded, Sentinel)
	}
	padded = append(padded, runes...)
	for i := 0; i < n-1; i++ {
		padded = append(padded, Sentinel)
	}
	if len(padded) < n {
		return nil
	}
	out := make([]string, 0, len(padded)-n+1)
	for i := 0; i+n <= len(padded); i++ {
		out = append(out, string(padded[i:i+n]))
	}
	return out
}
