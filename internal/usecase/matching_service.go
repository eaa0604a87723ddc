package usecase

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// Default selection thresholds. Both sit inside their documented bands
// (confidence floor 0.30-0.55, tie delta 0.05-0.10) and are overridable via
// config and per request.
const (
	defaultConfThreshold = 0.40
	defaultTieDelta      = 0.08
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	Weights            domain.Weights
	ConfThreshold      float64
	TieDelta           float64
	KnownBrands        []string
	EmbeddingTimeout   time.Duration
	EnableDebugLogging bool
}

// MatchRequest is the input to a single match operation. Weights and
// thresholds are optional per-request overrides of the service defaults.
type MatchRequest struct {
	Query            string
	Candidates       []domain.Candidate
	Weights          *domain.Weights
	ConfThreshold    *float64
	TieDelta         *float64
	GeneralQueryMode bool // opt in to the cheapest-relevant path for general queries
}

// MatchingService scores candidate listings against a query and selects the
// best match. It is a pure computation per call: no mutable state persists
// between requests.
type MatchingService struct {
	textScorer         *TextScorer
	semanticScorer     *SemanticScorer
	brandMatcher       *BrandMatcher
	weights            domain.Weights
	confThreshold      float64
	tieDelta           float64
	enableDebugLogging bool
}

// NewMatchingService creates a matching service. A nil embedder is valid and
// pins the semantic signal to its lexical fallback.
func NewMatchingService(embedder domain.Embedder, config MatchConfig) *MatchingService {
	weights := config.Weights
	if weights == (domain.Weights{}) {
		weights = domain.DefaultWeights()
	}

	threshold := config.ConfThreshold
	if threshold <= 0 {
		threshold = defaultConfThreshold
	}

	tieDelta := config.TieDelta
	if tieDelta <= 0 {
		tieDelta = defaultTieDelta
	}

	return &MatchingService{
		textScorer:         NewTextScorer(),
		semanticScorer:     NewSemanticScorer(embedder, config.EmbeddingTimeout),
		brandMatcher:       NewBrandMatcher(config.KnownBrands),
		weights:            weights,
		confThreshold:      threshold,
		tieDelta:           tieDelta,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// EmbeddingsReady reports whether the semantic signal runs on real embeddings.
func (s *MatchingService) EmbeddingsReady() bool {
	return s.semanticScorer.Ready()
}

// Match scores every candidate against the query and selects the winner.
// Malformed candidates are rejected into the skipped list; an empty or fully
// rejected candidate set yields a no_candidates result rather than an error.
func (s *MatchingService) Match(ctx context.Context, req MatchRequest) (*domain.MatchResult, error) {
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ErrInvalidRequest
	}

	weights := s.weights
	if req.Weights != nil {
		weights = *req.Weights
	}
	confThreshold := s.confThreshold
	if req.ConfThreshold != nil {
		confThreshold = *req.ConfThreshold
	}
	tieDelta := s.tieDelta
	if req.TieDelta != nil {
		tieDelta = *req.TieDelta
	}

	valid, skipped := validateCandidates(req.Candidates)
	if s.enableDebugLogging {
		log.Printf("[MATCH] query=%q candidates=%d skipped=%d", req.Query, len(valid), len(skipped))
	}

	if len(valid) == 0 {
		return &domain.MatchResult{
			Reason:           domain.ReasonNoCandidates,
			Skipped:          skipped,
			SemanticFallback: !s.semanticScorer.Ready(),
			ProcessingTimeMs: msSince(start),
		}, nil
	}

	if req.GeneralQueryMode && IsGeneralQuery(req.Query) {
		if result := s.matchGeneral(req.Query, valid, skipped, start); result != nil {
			return result, nil
		}
	}

	ranked, fallback, err := s.scoreCandidates(ctx, req.Query, valid, weights)
	if err != nil {
		return nil, err
	}

	result := s.selectBest(req.Query, ranked, confThreshold, tieDelta)
	result.Skipped = skipped
	result.SemanticFallback = fallback
	result.ProcessingTimeMs = msSince(start)

	if s.enableDebugLogging && result.Selected != nil {
		log.Printf("[MATCH] selected=%q confidence=%.3f reason=%s", result.Selected.Title, result.Confidence, result.Reason)
	}
	return result, nil
}

// scoreCandidates computes all sub-scores and the combined confidence for
// every candidate, preserving input order.
func (s *MatchingService) scoreCandidates(
	ctx context.Context,
	query string,
	candidates []domain.Candidate,
	weights domain.Weights,
) ([]domain.ScoredCandidate, bool, error) {
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.Title
	}
	semScores, fallback := s.semanticScorer.ScoreAll(ctx, query, titles)

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, fallback, ctx.Err()
		default:
		}

		lex := clampScore(s.textScorer.TokenSetScore(query, candidate.Title))
		part := clampScore(s.textScorer.PartialScore(query, candidate.Title))
		sem := clampScore(semScores[i])
		brand := clampScore(s.brandMatcher.Score(query, candidate.Title))

		confidence := weights.Lexical*lex + weights.Semantic*sem + weights.Partial*part + weights.Brand*brand
		if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
			// defensive: an unscorable candidate is excluded, not propagated
			log.Printf("[MATCH] dropping unscorable candidate %q", candidate.Title)
			continue
		}
		confidence = clampScore(confidence)

		unit := ParseUnit(candidate.Title)
		sc := domain.ScoredCandidate{
			Candidate:        candidate,
			LexicalScore:     lex,
			SemanticScore:    sem,
			PartialScore:     part,
			BrandScore:       brand,
			Confidence:       confidence,
			Unit:             unit,
			SemanticFallback: fallback,
		}
		if ppu, ok := unit.PricePerUnit(candidate.Price); ok {
			sc.PricePerUnit = &ppu
		}

		if s.enableDebugLogging {
			log.Printf("[MATCH] %q | lex=%.3f sem=%.3f part=%.3f brand=%.3f -> %.3f",
				candidate.Title, lex, sem, part, brand, confidence)
		}
		scored = append(scored, sc)
	}

	// descending confidence; stable keeps original input order on ties
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Confidence > scored[j].Confidence
	})
	return scored, fallback, nil
}

// selectBest applies the selection algorithm: confidence floor first, then
// price-per-unit tie-breaking within the tie delta, then raw price, then the
// outright winner.
func (s *MatchingService) selectBest(
	query string,
	ranked []domain.ScoredCandidate,
	confThreshold, tieDelta float64,
) *domain.MatchResult {
	if len(ranked) == 0 {
		return &domain.MatchResult{Reason: domain.ReasonNoCandidates}
	}

	top := ranked[0]
	if top.Confidence < confThreshold {
		// best-effort top for diagnostics; confidence_ok tells the modes apart
		selected := top.Candidate
		return &domain.MatchResult{
			Selected:   &selected,
			Confidence: top.Confidence,
			Reason:     domain.ReasonLowConfidence,
			Ranked:     ranked,
		}
	}

	tied := []domain.ScoredCandidate{top}
	for _, c := range ranked[1:] {
		if top.Confidence-c.Confidence <= tieDelta {
			tied = append(tied, c)
		}
	}

	if len(tied) == 1 {
		selected := top.Candidate
		return &domain.MatchResult{
			Selected:     &selected,
			Confidence:   top.Confidence,
			ConfidenceOK: true,
			Reason:       domain.ReasonClearWinner,
			Ranked:       ranked,
		}
	}

	queryUnit := ParseUnit(query)
	if comparableUnits(tied, queryUnit) {
		chosen := tied[0]
		for _, c := range tied[1:] {
			if *c.PricePerUnit < *chosen.PricePerUnit {
				chosen = c
			}
		}
		selected := chosen.Candidate
		return &domain.MatchResult{
			Selected:     &selected,
			Confidence:   chosen.Confidence,
			ConfidenceOK: true,
			Reason:       domain.ReasonTieBrokenByPricePerUnit,
			Ranked:       ranked,
		}
	}

	// dimensions incomparable or absent: fall back to raw price
	chosen := tied[0]
	for _, c := range tied[1:] {
		if c.Candidate.Price < chosen.Candidate.Price {
			chosen = c
		}
	}
	selected := chosen.Candidate
	return &domain.MatchResult{
		Selected:     &selected,
		Confidence:   chosen.Confidence,
		ConfidenceOK: true,
		Reason:       domain.ReasonTieBrokenByPrice,
		Ranked:       ranked,
	}
}

// matchGeneral handles the opt-in general-query path: the cheapest relevant
// candidate wins outright. Returns nil when nothing relevant was found so the
// caller proceeds with the standard scoring pipeline.
func (s *MatchingService) matchGeneral(
	query string,
	candidates []domain.Candidate,
	skipped []domain.SkippedCandidate,
	start time.Time,
) *domain.MatchResult {
	cheapest := CheapestRelevant(query, candidates)
	if cheapest == nil {
		return nil
	}
	if s.enableDebugLogging {
		log.Printf("[MATCH] general query %q -> cheapest relevant %q ($%.2f)", query, cheapest.Title, cheapest.Price)
	}
	return &domain.MatchResult{
		Selected:         cheapest,
		Confidence:       0.95,
		ConfidenceOK:     true,
		Reason:           domain.ReasonGeneralQueryCheapest,
		Skipped:          skipped,
		SemanticFallback: !s.semanticScorer.Ready(),
		ProcessingTimeMs: msSince(start),
	}
}

// comparableUnits reports whether the tied set supports a fair price-per-unit
// comparison: every member has a parsed unit of the same dimension, and when
// the query itself names a quantity its dimension must agree.
func comparableUnits(tied []domain.ScoredCandidate, queryUnit domain.ParsedUnit) bool {
	dim := tied[0].Unit.Dimension
	for _, c := range tied {
		if !c.Unit.HasUnit() || c.Unit.Dimension != dim || c.PricePerUnit == nil {
			return false
		}
	}
	if queryUnit.HasUnit() && queryUnit.Dimension != dim {
		return false
	}
	return true
}

// validateCandidates splits the raw candidate list into scorable candidates
// and boundary rejections.
func validateCandidates(candidates []domain.Candidate) ([]domain.Candidate, []domain.SkippedCandidate) {
	valid := make([]domain.Candidate, 0, len(candidates))
	var skipped []domain.SkippedCandidate
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			skipped = append(skipped, domain.SkippedCandidate{Candidate: c, Reason: err.Error()})
			continue
		}
		valid = append(valid, c)
	}
	return valid, skipped
}

// clampScore guards a component score against NaN/Inf and clamps it to [0,1].
func clampScore(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
