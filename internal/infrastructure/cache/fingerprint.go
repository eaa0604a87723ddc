package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/cartscout/backend/internal/domain"
)

// Fingerprint derives a stable cache key from a query, its candidate list, and
// the effective matching options. Candidates are hashed in input order with
// their positions: order is a tie-break input, so a reordered list must not
// hit the same cache entry.
func Fingerprint(query string, candidates []domain.Candidate, weights domain.Weights, confThreshold, tieDelta float64) string {
	h := xxhash.New()
	h.WriteString(strings.ToLower(strings.TrimSpace(query)))
	h.WriteString("\n")
	h.WriteString(formatFloat(weights.Lexical))
	h.WriteString(formatFloat(weights.Semantic))
	h.WriteString(formatFloat(weights.Partial))
	h.WriteString(formatFloat(weights.Brand))
	h.WriteString(formatFloat(confThreshold))
	h.WriteString(formatFloat(tieDelta))
	for _, c := range candidates {
		h.WriteString("\n")
		h.WriteString(fmt.Sprintf("%s|%s|%s|%d", c.Title, formatFloat(c.Price), c.Source, c.Position))
	}

	return "match:" + strconv.FormatUint(h.Sum64(), 16)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
