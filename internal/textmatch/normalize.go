// Package textmatch compares market titles across venues.
package textmatch

import (
	"strings"
)

// punctuation is replaced with a space before stopword removal.
const punctuation = "'\"?!.,;:-()[]{}/\\‘’“”–—"

//nolint:gochecknoglobals // fixed lookup table
var stopwords = map[string]struct{}{
	"will": {}, "the": {}, "a": {}, "an": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"of": {}, "for": {}, "by": {}, "be": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"has": {}, "have": {}, "had": {}, "do": {}, "does": {}, "did": {}, "this": {},
	"that": {}, "it": {},
}

// Normalize lowercases a title, strips punctuation and stopwords, and
// collapses whitespace.
func Normalize(title string) string {
	lowered := strings.ToLower(title)

	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, lowered)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}

// Tokens returns the set of distinct tokens in the normalized title.
func Tokens(title string) map[string]struct{} {
	words := strings.Fields(Normalize(title))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
