package usecase

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// TextScorer computes lexical similarity between a query and a candidate
// title. Two independent signals are produced: a token-set score that is
// order- and duplicate-insensitive, and a partial score that rewards the
// query being contained within a longer title.
type TextScorer struct {
	lev *metrics.Levenshtein
	swg *metrics.SmithWatermanGotoh
}

// NewTextScorer creates a text scorer with reusable metric instances.
// The metric instances are configuration-only and safe for concurrent use.
func NewTextScorer() *TextScorer {
	return &TextScorer{
		lev: metrics.NewLevenshtein(),
		swg: metrics.NewSmithWatermanGotoh(),
	}
}

// TokenSetScore returns an order- and duplicate-insensitive similarity in
// [0,1]. Both strings are tokenized into sorted unique token sets; the score
// is the best Levenshtein similarity among the intersection string and each
// side's intersection-plus-remainder string. A query whose tokens all appear
// in the title scores 1.0 regardless of extra descriptive words.
func (s *TextScorer) TokenSetScore(query, title string) float64 {
	qTokens := uniqueSorted(tokenize(query))
	tTokens := uniqueSorted(tokenize(title))
	if len(qTokens) == 0 || len(tTokens) == 0 {
		return 0
	}

	inSet := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		inSet[t] = true
	}

	var intersection, qOnly, tOnly []string
	matched := make(map[string]bool)
	for _, t := range tTokens {
		if inSet[t] {
			intersection = append(intersection, t)
			matched[t] = true
		} else {
			tOnly = append(tOnly, t)
		}
	}
	for _, t := range qTokens {
		if !matched[t] {
			qOnly = append(qOnly, t)
		}
	}

	base := strings.Join(intersection, " ")
	combinedQ := strings.TrimSpace(base + " " + strings.Join(qOnly, " "))
	combinedT := strings.TrimSpace(base + " " + strings.Join(tOnly, " "))

	best := s.ratio(combinedQ, combinedT)
	if base != "" {
		if r := s.ratio(base, combinedQ); r > best {
			best = r
		}
		if r := s.ratio(base, combinedT); r > best {
			best = r
		}
	}
	return clampScore(best)
}

// PartialScore returns a substring-style similarity in [0,1] using
// Smith-Waterman-Gotoh local alignment, which scores the best-aligned region
// rather than the whole strings. A query fully contained in a longer title
// scores at or near 1.0.
func (s *TextScorer) PartialScore(query, title string) float64 {
	q := normalizeText(query)
	t := normalizeText(title)
	if q == "" || t == "" {
		return 0
	}
	return clampScore(strutil.Similarity(q, t, s.swg))
}

// ratio is plain Levenshtein similarity over already-normalized strings.
func (s *TextScorer) ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return strutil.Similarity(a, b, s.lev)
}
