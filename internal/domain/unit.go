package domain

// Dimension is the canonical dimension of a parsed quantity.
type Dimension string

const (
	DimensionVolume   Dimension = "volume" // canonical unit: liters
	DimensionMass     Dimension = "mass"   // canonical unit: grams
	DimensionUnitless Dimension = "unitless"
)

// ParsedUnit is a quantity extracted from free text and normalized to a
// canonical magnitude: liters for volume, grams for mass. A title with no
// recognizable quantity parses to the unitless sentinel, which is an
// expected outcome rather than an error.
type ParsedUnit struct {
	Magnitude float64   `json:"magnitude"`
	Dimension Dimension `json:"dimension"`
}

// NoUnit is the sentinel for titles without a recognizable quantity.
var NoUnit = ParsedUnit{Dimension: DimensionUnitless}

// HasUnit reports whether the parse found a usable quantity.
func (u ParsedUnit) HasUnit() bool {
	return u.Dimension != DimensionUnitless && u.Magnitude > 0
}

// Comparable reports whether two parsed units share a dimension that allows
// a fair price-per-unit comparison.
func (u ParsedUnit) Comparable(other ParsedUnit) bool {
	return u.HasUnit() && other.HasUnit() && u.Dimension == other.Dimension
}

// PricePerUnit computes price per canonical unit (per liter or per gram).
// Returns false when the unit is absent, making the comparison meaningless.
func (u ParsedUnit) PricePerUnit(price float64) (float64, bool) {
	if !u.HasUnit() {
		return 0, false
	}
	return price / u.Magnitude, true
}
