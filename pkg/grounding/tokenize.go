package grounding

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minTokenLength drops particles like "a" or "I" that would inflate
// coverage ratios without carrying meaning.
const minTokenLength = 2

// tokenize splits text into comparison tokens: NFC-normalized, lowercased,
// split on anything that is not a letter or digit.
func tokenize(text string) []string {
	normalized := strings.ToLower(norm.NFC.String(text))
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenSet dedupes tokens for overlap arithmetic.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
