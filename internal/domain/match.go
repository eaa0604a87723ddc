package domain

// Weights controls how the individual similarity signals combine into one
// confidence score. Values are documented as normalized for interpretability;
// they intentionally leave headroom below 1.0 for future signals.
type Weights struct {
	Lexical  float64 `json:"lexical"`  // token-set similarity
	Semantic float64 `json:"semantic"` // embedding (or fallback proxy) similarity
	Partial  float64 `json:"partial"`  // substring-style similarity
	Brand    float64 `json:"brand"`    // brand token overlap
}

// DefaultWeights returns the documented default signal weights.
func DefaultWeights() Weights {
	return Weights{
		Lexical:  0.35,
		Semantic: 0.25,
		Partial:  0.15,
		Brand:    0.10,
	}
}

// Reason enumerates why the selector chose (or declined) a candidate.
type Reason string

const (
	ReasonClearWinner             Reason = "clear_winner"
	ReasonTieBrokenByPricePerUnit Reason = "tie_broken_by_price_per_unit"
	ReasonTieBrokenByPrice        Reason = "tie_broken_by_price"
	ReasonLowConfidence           Reason = "low_confidence"
	ReasonNoCandidates            Reason = "no_candidates"

	// Reasons below are only reachable through explicit opt-in paths.
	ReasonGeneralQueryCheapest Reason = "general_query_cheapest"
	ReasonPrioritySelection    Reason = "priority_selection"
)

// ScoredCandidate is a candidate annotated with its per-signal sub-scores,
// combined confidence, and derived price-per-canonical-unit.
type ScoredCandidate struct {
	Candidate        Candidate  `json:"candidate"`
	LexicalScore     float64    `json:"lexicalScore"`
	SemanticScore    float64    `json:"semanticScore"`
	PartialScore     float64    `json:"partialScore"`
	BrandScore       float64    `json:"brandScore"`
	Confidence       float64    `json:"confidence"`
	Unit             ParsedUnit `json:"unit"`
	PricePerUnit     *float64   `json:"pricePerUnit,omitempty"` // nil when unitless
	SemanticFallback bool       `json:"semanticFallback"`       // true when the lexical proxy stood in for embeddings
}

// MatchResult is the outcome of matching one query against one candidate set.
// Selected is nil when no candidate cleared the confidence floor and the
// caller did not ask for a best-effort pick; ConfidenceOK distinguishes a
// confident selection from a diagnostic one.
type MatchResult struct {
	Selected         *Candidate         `json:"selected"`
	Confidence       float64            `json:"confidence"`
	ConfidenceOK     bool               `json:"confidenceOk"`
	Reason           Reason             `json:"reason"`
	Ranked           []ScoredCandidate  `json:"ranked"`
	Skipped          []SkippedCandidate `json:"skipped,omitempty"`
	SemanticFallback bool               `json:"semanticFallback"`
	ProcessingTimeMs float64            `json:"processingTimeMs"`
}

// StoreMatchSet aggregates per-store match results for one query. Stores in
// NeedsFallback had no candidates or no confident match; the caller owns
// whatever secondary strategy applies.
type StoreMatchSet struct {
	StoreMatches  map[string]*MatchResult `json:"storeMatches"`
	NeedsFallback []string                `json:"needsFallback"`
}

// QueryComponents holds structured fields extracted from a free-text query.
// Any field may be empty when extraction could not identify it.
type QueryComponents struct {
	Brand    string `json:"brand,omitempty"`
	Item     string `json:"item,omitempty"`
	Quantity string `json:"quantity,omitempty"`
}
