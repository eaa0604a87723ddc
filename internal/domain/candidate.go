package domain

import (
	"fmt"
	"math"
	"strings"
)

// Candidate represents one scraped product listing under consideration
// for matching against a user query.
type Candidate struct {
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Source      string  `json:"source"`   // store name, e.g. "Walmart"
	Position    int     `json:"position"` // rank as returned by the upstream search
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
}

// Validate checks that a candidate carries the fields scoring depends on.
// Candidates failing validation are skipped at the boundary, never scored.
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrMalformedCandidate)
	}
	if c.Price <= 0 || math.IsNaN(c.Price) || math.IsInf(c.Price, 0) {
		return fmt.Errorf("%w: price must be a positive number, got %v", ErrMalformedCandidate, c.Price)
	}
	if c.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrMalformedCandidate, c.Position)
	}
	return nil
}

// SkippedCandidate records a candidate rejected during boundary validation,
// with the reason it was excluded from ranking.
type SkippedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}
