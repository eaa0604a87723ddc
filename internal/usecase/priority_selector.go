package usecase

import (
	"strings"

	"github.com/cartscout/backend/internal/domain"
)

// quantityTolerance is the relative tolerance when matching an extracted
// quantity against a title's parsed unit (15%: "1 gal" accepts 3.6-4.0 L).
const quantityTolerance = 0.15

// SelectByPriority picks a candidate using extracted query components,
// cascading from the strictest condition that yields a match down to the
// cheapest overall. Within every tier the lowest-priced candidate wins.
// Returns nil when no component is usable.
func SelectByPriority(candidates []domain.Candidate, comps domain.QueryComponents) *domain.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	item := normalizeText(comps.Item)
	brand := normalizeText(comps.Brand)
	quantity := ParseUnit(comps.Quantity)

	hasItem := item != ""
	hasBrand := brand != ""
	hasQty := quantity.HasUnit()
	if !hasItem && !hasBrand && !hasQty {
		return nil
	}

	matchItem := func(c domain.Candidate) bool { return titleContains(c.Title, item) }
	matchBrand := func(c domain.Candidate) bool { return titleContains(c.Title, brand) }
	matchQty := func(c domain.Candidate) bool { return titleMatchesQuantity(c.Title, quantity) }

	switch {
	case hasItem && hasBrand && hasQty:
		for _, cond := range []func(domain.Candidate) bool{
			func(c domain.Candidate) bool { return matchItem(c) && matchBrand(c) && matchQty(c) },
			func(c domain.Candidate) bool { return (matchItem(c) || matchBrand(c)) && matchQty(c) },
			func(c domain.Candidate) bool { return matchItem(c) && (matchBrand(c) || matchQty(c)) },
			func(c domain.Candidate) bool { return matchItem(c) || matchBrand(c) || matchQty(c) },
		} {
			if pick := cheapestWhere(candidates, cond); pick != nil {
				return pick
			}
		}
		return cheapestWhere(candidates, nil)

	case hasItem && hasBrand:
		for _, cond := range []func(domain.Candidate) bool{
			func(c domain.Candidate) bool { return matchItem(c) && matchBrand(c) },
			func(c domain.Candidate) bool { return matchItem(c) || matchBrand(c) },
		} {
			if pick := cheapestWhere(candidates, cond); pick != nil {
				return pick
			}
		}
		return cheapestWhere(candidates, nil)

	case hasItem && hasQty:
		for _, cond := range []func(domain.Candidate) bool{
			func(c domain.Candidate) bool { return matchItem(c) && matchQty(c) },
			func(c domain.Candidate) bool { return matchItem(c) || matchQty(c) },
		} {
			if pick := cheapestWhere(candidates, cond); pick != nil {
				return pick
			}
		}
		return cheapestWhere(candidates, nil)

	default:
		cond := func(c domain.Candidate) bool {
			return (hasItem && matchItem(c)) || (hasBrand && matchBrand(c)) || (hasQty && matchQty(c))
		}
		if pick := cheapestWhere(candidates, cond); pick != nil {
			return pick
		}
		return cheapestWhere(candidates, nil)
	}
}

// cheapestWhere returns the lowest-priced candidate satisfying cond. A nil
// cond accepts every candidate.
func cheapestWhere(candidates []domain.Candidate, cond func(domain.Candidate) bool) *domain.Candidate {
	var best *domain.Candidate
	for i := range candidates {
		c := candidates[i]
		if cond != nil && !cond(c) {
			continue
		}
		if best == nil || c.Price < best.Price {
			best = &candidates[i]
		}
	}
	return best
}

func titleContains(title, token string) bool {
	if token == "" {
		return false
	}
	return strings.Contains(normalizeText(title), token)
}

// titleMatchesQuantity reports whether the title's parsed unit agrees with
// the wanted quantity in dimension and magnitude within the tolerance.
func titleMatchesQuantity(title string, want domain.ParsedUnit) bool {
	if !want.HasUnit() {
		return false
	}
	got := ParseUnit(title)
	if !got.Comparable(want) {
		return false
	}
	diff := got.Magnitude - want.Magnitude
	if diff < 0 {
		diff = -diff
	}
	return diff <= quantityTolerance*want.Magnitude
}
