package domain

import (
	"regexp"
	"strings"
)

// nonCanonicalRe matches any rune outside the canonical label alphabet.
var nonCanonicalRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Canonicalize lowercases s, turns spaces into underscores and replaces every
// remaining rune outside [a-zA-Z0-9_-] with an underscore, e.g.
// "Longitude [degrees_east]" -> "longitude__degrees_east_".
//
// The result only contains [a-z0-9_-], so Canonicalize(Canonicalize(s)) ==
// Canonicalize(s).
func Canonicalize(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), " ", "_")
	return nonCanonicalRe.ReplaceAllString(s, "_")
}
