package usecase

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// brandFuzzyThreshold is the minimum Jaro-Winkler similarity for partial
// brand credit. Below it the brand signal is 0; above it the similarity
// itself is the score, keeping credit monotonic with string distance.
const brandFuzzyThreshold = 0.85

// maxLeadingBrandTokens caps how many capitalized leading query tokens are
// treated as a brand phrase ("Great Value", "Arm & Hammer").
const maxLeadingBrandTokens = 2

// BrandMatcher detects whether a brand token from the query appears in a
// candidate title. Brand candidates come from capitalized leading query
// tokens and from a configurable known-brand list.
type BrandMatcher struct {
	knownBrands []string
}

// NewBrandMatcher creates a brand matcher. The known-brand list may be empty;
// capitalized leading tokens still produce brand candidates.
func NewBrandMatcher(knownBrands []string) *BrandMatcher {
	normalized := make([]string, 0, len(knownBrands))
	for _, b := range knownBrands {
		if n := normalizeText(b); n != "" {
			normalized = append(normalized, n)
		}
	}
	return &BrandMatcher{knownBrands: normalized}
}

// Score returns 1.0 when a brand candidate appears verbatim in the title,
// the Jaro-Winkler similarity for a near-exact token match at or above the
// fuzzy threshold, and 0.0 otherwise.
func (m *BrandMatcher) Score(query, title string) float64 {
	brands := m.brandCandidates(query)
	if len(brands) == 0 {
		return 0
	}

	titleNorm := normalizeText(title)
	if titleNorm == "" {
		return 0
	}
	titleTokens := strings.Fields(titleNorm)

	best := 0.0
	for _, brand := range brands {
		if strings.Contains(titleNorm, brand) {
			return 1.0
		}
		for _, token := range titleTokens {
			sim := float64(edlib.JaroWinklerSimilarity(brand, token))
			if sim >= brandFuzzyThreshold && sim > best {
				best = sim
			}
		}
	}
	return best
}

// brandCandidates extracts normalized brand candidates from the query:
// the capitalized leading token(s) of the raw query, plus any known brand
// contained in it.
func (m *BrandMatcher) brandCandidates(query string) []string {
	var candidates []string

	words := strings.Fields(query)
	var leading []string
	for _, w := range words {
		if len(leading) >= maxLeadingBrandTokens || !startsUpper(w) {
			break
		}
		leading = append(leading, w)
	}
	if len(leading) > 0 {
		if phrase := normalizeText(strings.Join(leading, " ")); phrase != "" {
			candidates = append(candidates, phrase)
		}
		// the first token alone also counts ("Tyson" in "Tyson Chicken Breast")
		if len(leading) > 1 {
			if first := normalizeText(leading[0]); first != "" {
				candidates = append(candidates, first)
			}
		}
	}

	queryNorm := normalizeText(query)
	for _, brand := range m.knownBrands {
		if strings.Contains(queryNorm, brand) {
			candidates = append(candidates, brand)
		}
	}

	return candidates
}

// startsUpper reports whether a word begins with an uppercase letter.
func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}
