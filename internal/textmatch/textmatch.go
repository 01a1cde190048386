// Package textmatch holds the text normalization and phrase matching
// primitives the scoring pipeline is built on.
package textmatch

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Normalize lower-cases s, collapses whitespace runs to single spaces,
// and trims. Normalize never fails and is idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(strings.ToLower(s), " "))
}

// MatchPhrases returns the phrases that occur as substrings of the
// normalized text, in phrase-list order. No word-boundary enforcement:
// "cat" matches inside "category".
func MatchPhrases(text string, phrases []string) []string {
	norm := Normalize(text)
	var matched []string
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(norm, Normalize(p)) {
			matched = append(matched, p)
		}
	}
	return matched
}

// ContainsAny reports whether any needle occurs as a substring of the
// normalized text.
func ContainsAny(text string, needles []string) bool {
	norm := Normalize(text)
	for _, n := range needles {
		if n != "" && strings.Contains(norm, Normalize(n)) {
			return true
		}
	}
	return false
}

// WordSet returns the set of whitespace-separated words in the
// normalized text.
func WordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(text)) {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard computes word-set intersection over union between two texts.
// Two empty texts yield 0.
func Jaccard(a, b string) float64 {
	as := WordSet(a)
	bs := WordSet(b)
	if len(as) == 0 && len(bs) == 0 {
		return 0
	}
	inter := 0
	for w := range as {
		if _, ok := bs[w]; ok {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
