package usecase

import (
	"regexp"
	"sort"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^a-z0-9 &%.'-]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// normalizeText lowercases, strips punctuation, and collapses whitespace.
// Digits, ampersand, percent, dot and dash are kept: they carry meaning in
// product titles ("2% milk", "arm & hammer", "1.5 l").
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	// unify common unicode punctuation before stripping
	s = strings.NewReplacer("–", "-", "—", "-", "’", "'").Replace(s)
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenize splits a string into normalized lowercase tokens. Numeric tokens
// are kept because quantities distinguish otherwise identical listings.
func tokenize(s string) []string {
	return strings.Fields(normalizeText(s))
}

// uniqueSorted deduplicates and sorts a token slice.
func uniqueSorted(tokens []string) []string {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// findIntersection returns the count of common tokens and the matched tokens
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens2 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// findUnion returns the count of unique tokens across both sets
func findUnion(tokens1, tokens2 []string) int {
	set := make(map[string]bool)
	for _, t := range tokens1 {
		set[t] = true
	}
	for _, t := range tokens2 {
		set[t] = true
	}
	return len(set)
}

// jaccardTokens computes shared-token Jaccard similarity over word sets.
func jaccardTokens(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter, _ := findIntersection(ta, tb)
	union := findUnion(ta, tb)
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
