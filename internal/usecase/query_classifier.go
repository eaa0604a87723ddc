package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cartscout/backend/internal/domain"
)

// Patterns that mark a query as specific rather than general. A general
// query ("milk", "bread") names a category; a specific one pins down brand,
// quantity, or variant.
var specificQueryPatterns = []*regexp.Regexp{
	// quantity and size
	regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:gallons?|gal|liters?|l|fl\s*oz|oz|ounces?|pounds?|lbs?|kg|grams?|g|ml)\b`),
	regexp.MustCompile(`\b(?:half|quarter|family\s+size|bulk|jumbo|mini)\b`),
	regexp.MustCompile(`\b\d+\s*(?:pack|count|ct|pc)\b`),
	// quality and variety
	regexp.MustCompile(`\b(?:whole|2%|1%|skim|low\s+fat|non\s*fat|fat\s+free|lactose\s+free)\b`),
	regexp.MustCompile(`\b(?:organic|natural|premium|ultra|concentrated|heavy\s+duty)\b`),
	regexp.MustCompile(`\b(?:original|classic|traditional|unscented|scented|unsweetened|sweetened)\b`),
	// product form
	regexp.MustCompile(`\b(?:powder|liquid|gel|pods|capsules|tablets|bars)\b`),
}

// categoryTerms are bare product-category words that indicate a general query
// when they make up most of it.
var categoryTerms = map[string]bool{
	"milk": true, "cheese": true, "butter": true, "yogurt": true, "cream": true,
	"bread": true, "cereal": true, "rice": true, "pasta": true, "flour": true,
	"chicken": true, "beef": true, "fish": true, "eggs": true, "meat": true,
	"water": true, "juice": true, "soda": true, "coffee": true, "tea": true,
	"detergent": true, "soap": true, "shampoo": true, "toothpaste": true,
	"chips": true, "cookies": true, "crackers": true, "nuts": true,
	"apples": true, "bananas": true, "oranges": true, "carrots": true,
	"lettuce": true, "tomatoes": true,
}

// categorySynonyms expand a category word to related title terms for
// relevance scoring in the cheapest-relevant path.
var categorySynonyms = map[string][]string{
	"detergent": {"laundry", "washing", "cleaning", "soap"},
	"milk":      {"dairy", "cream", "lactose"},
	"bread":     {"loaf", "baked", "grain"},
	"chicken":   {"poultry", "meat", "protein"},
	"cheese":    {"dairy"},
	"eggs":      {"poultry", "protein", "shell"},
	"oil":       {"cooking", "vegetable", "canola", "olive", "sunflower", "avocado"},
}

var digitRegex = regexp.MustCompile(`\d`)

// IsGeneralQuery classifies a query as general (category-level, best served
// by the cheapest relevant listing) versus specific (brand, quantity, or
// variant present, best served by similarity scoring).
func IsGeneralQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	words := strings.Fields(q)
	if len(words) == 0 {
		return true
	}

	for _, pattern := range specificQueryPatterns {
		if pattern.MatchString(q) {
			return false
		}
	}
	if digitRegex.MatchString(q) {
		return false
	}
	if len(words) == 1 {
		return true
	}

	// short queries built around a bare category word are general
	if len(words) <= 3 {
		for _, w := range words {
			if categoryTerms[w] {
				return true
			}
		}
		return true
	}
	return false
}

// CheapestRelevant picks the lowest-priced candidate whose title overlaps the
// query tokens (directly or via category synonyms). Returns nil when nothing
// is relevant, letting the caller fall through to similarity scoring.
func CheapestRelevant(query string, candidates []domain.Candidate) *domain.Candidate {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	type relevant struct {
		candidate domain.Candidate
		score     int
	}

	var matched []relevant
	for _, c := range candidates {
		titleNorm := normalizeText(c.Title)
		titleTokens := strings.Fields(titleNorm)

		score := 0
		exact, _ := findIntersection(queryTokens, titleTokens)
		score += exact * 5

		for _, qt := range queryTokens {
			if len(qt) <= 2 {
				continue
			}
			for _, tt := range titleTokens {
				if qt != tt && (strings.Contains(tt, qt) || strings.Contains(qt, tt)) {
					score += 5
				}
			}
			for _, syn := range categorySynonyms[qt] {
				if strings.Contains(titleNorm, syn) {
					score += 3
				}
			}
		}

		if score > 0 {
			matched = append(matched, relevant{candidate: c, score: score})
		}
	}

	if len(matched) == 0 {
		return nil
	}

	// price first, relevance as the secondary key
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].candidate.Price != matched[j].candidate.Price {
			return matched[i].candidate.Price < matched[j].candidate.Price
		}
		return matched[i].score > matched[j].score
	})

	winner := matched[0].candidate
	return &winner
}
