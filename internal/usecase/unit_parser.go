package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cartscout/backend/internal/domain"
)

// Conversion constants: canonical units are liters (volume) and grams (mass).
const (
	litersPerGallon  = 3.78541
	litersPerQuart   = 0.946353
	litersPerPint    = 0.473176
	litersPerFluidOz = 0.0295735
	litersPerML      = 0.001
	gramsPerPound    = 453.592
	gramsPerOunce    = 28.3495
	gramsPerKilogram = 1000.0
)

// unitPattern pairs a quantity regex with its conversion to the canonical unit.
type unitPattern struct {
	re        *regexp.Regexp
	factor    float64
	dimension domain.Dimension
}

// unitPatterns is the closed set of recognized unit tokens. Order resolves
// overlaps: "fl oz" must be tried before bare "oz", "ml" before "l", and
// "kg"/"lb" before "g"/"l". Bare "oz" is a mass unit; only "fl oz" variants
// are volume.
var unitPatterns = []unitPattern{
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:gallons?|gal)\b`), litersPerGallon, domain.DimensionVolume},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:quarts?|qt)\b`), litersPerQuart, domain.DimensionVolume},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:pints?|pt)\b`), litersPerPint, domain.DimensionVolume},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:fl\.?\s*oz|fluid\s*(?:ounces?|oz))\b`), litersPerFluidOz, domain.DimensionVolume},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:milliliters?|millilitres?|ml)\b`), litersPerML, domain.DimensionVolume},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:liters?|litres?|l)\b`), 1.0, domain.DimensionVolume},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:pounds?|lbs?)\b`), gramsPerPound, domain.DimensionMass},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ounces?|oz)\b`), gramsPerOunce, domain.DimensionMass},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:kilograms?|kg)\b`), gramsPerKilogram, domain.DimensionMass},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:grams?|g)\b`), 1.0, domain.DimensionMass},
}

var (
	// "2 x 16 oz" style count prefix, checked directly before the quantity match
	countPrefixRegex = regexp.MustCompile(`(\d+)\s*[x×]\s*$`)

	// "6-pack", "6 pack", "6pk" anywhere in the title
	packCountRegex = regexp.MustCompile(`\b(\d+)[-\s]?(?:pack|pk)\b`)
)

// ParseUnit extracts the first recognizable quantity expression from text and
// converts it to a canonical magnitude. A simple "N x" prefix or an "N-pack"
// marker multiplies count by single-unit magnitude. Unrecognized text returns
// the unitless sentinel; that is an expected outcome, not an error.
func ParseUnit(text string) domain.ParsedUnit {
	t := strings.ToLower(text)

	bestStart := -1
	var bestMagnitude float64
	var bestDimension domain.Dimension

	for _, p := range unitPatterns {
		loc := p.re.FindStringSubmatchIndex(t)
		if loc == nil {
			continue
		}
		if bestStart != -1 && loc[0] >= bestStart {
			continue
		}
		raw := t[loc[2]:loc[3]]
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			continue
		}
		bestStart = loc[0]
		bestMagnitude = value * p.factor
		bestDimension = p.dimension
	}

	if bestStart == -1 {
		return domain.NoUnit
	}

	if count := multipackCount(t, bestStart); count > 1 {
		bestMagnitude *= float64(count)
	}

	return domain.ParsedUnit{Magnitude: bestMagnitude, Dimension: bestDimension}
}

// multipackCount detects "N x <quantity>" immediately before the quantity
// match, or an "N-pack" marker elsewhere in the title. Returns 1 when no
// multipack pattern applies.
func multipackCount(t string, quantityStart int) int {
	if m := countPrefixRegex.FindStringSubmatch(t[:quantityStart]); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			return n
		}
	}
	if m := packCountRegex.FindStringSubmatch(t); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			return n
		}
	}
	return 1
}
