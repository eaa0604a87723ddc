package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cartscout/backend/internal/domain"
)

// defaultStoreParallelism bounds concurrent per-store matching when the
// caller does not choose a limit.
const defaultStoreParallelism = 4

// majorStoreChains are grocery chains whose scraped source names vary
// ("Walmart" vs "Walmart Neighborhood Market"). Single-word overlap is
// accepted for these; every other store requires an exact name match.
var majorStoreChains = []string{
	"walmart", "kroger", "h-e-b", "heb", "target", "aldi", "costco",
	"albertsons", "publix", "whole foods", "trader joe", "safeway",
	"wegmans", "meijer", "hy-vee", "shoprite", "stop & shop", "giant",
	"harris teeter", "food lion", "ralphs", "fred meyer", "king soopers",
	"tom thumb", "sprouts", "central market", "vons", "jewel-osco",
}

// StoreMatchRequest is the input to a multi-store match operation.
type StoreMatchRequest struct {
	Query         string
	Candidates    []domain.Candidate // each tagged with its source store
	TargetStores  []string
	Weights       *domain.Weights
	ConfThreshold *float64
	TieDelta      *float64
}

// StoreOrchestrator repeats single-query matching across a set of target
// stores. Stores without candidates or without a confident match land in the
// needs-fallback set; the orchestrator signals fallback, it never performs it.
type StoreOrchestrator struct {
	matcher            *MatchingService
	extractor          domain.ComponentExtractor
	parallelism        int
	enableDebugLogging bool
}

// NewStoreOrchestrator creates an orchestrator around a matching service.
// The component extractor is optional; when nil the priority pre-pass is
// skipped and every store goes through similarity scoring.
func NewStoreOrchestrator(matcher *MatchingService, extractor domain.ComponentExtractor, parallelism int, debug bool) *StoreOrchestrator {
	if parallelism <= 0 {
		parallelism = defaultStoreParallelism
	}
	return &StoreOrchestrator{
		matcher:            matcher,
		extractor:          extractor,
		parallelism:        parallelism,
		enableDebugLogging: debug,
	}
}

// MatchStores partitions candidates by source store, matches each target
// store's subset independently and concurrently, and assembles the result
// set keyed by target store name. Per-store failures are isolated: one bad
// store never aborts its siblings.
func (o *StoreOrchestrator) MatchStores(ctx context.Context, req StoreMatchRequest) (*domain.StoreMatchSet, error) {
	if strings.TrimSpace(req.Query) == "" || len(req.TargetStores) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	comps := o.extractComponents(ctx, req.Query)

	results := make([]*domain.MatchResult, len(req.TargetStores))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, target := range req.TargetStores {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = o.matchStore(gctx, req, target, comps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &domain.StoreMatchSet{
		StoreMatches:  make(map[string]*domain.MatchResult, len(req.TargetStores)),
		NeedsFallback: []string{},
	}
	for i, target := range req.TargetStores {
		result := results[i]
		if result != nil {
			set.StoreMatches[target] = result
		}
		if result == nil || !result.ConfidenceOK {
			set.NeedsFallback = append(set.NeedsFallback, target)
		}
	}
	return set, nil
}

// matchStore resolves one target store's candidate subset and matches it.
// Returns nil when the store has no candidates or its subset could not be
// processed; the caller routes those stores to the fallback set.
func (o *StoreOrchestrator) matchStore(
	ctx context.Context,
	req StoreMatchRequest,
	target string,
	comps *domain.QueryComponents,
) *domain.MatchResult {
	subset := candidatesForStore(target, req.Candidates)
	if len(subset) == 0 {
		if o.enableDebugLogging {
			log.Printf("[STORES] no candidates for %q", target)
		}
		return nil
	}

	if comps != nil {
		if pick := SelectByPriority(subset, *comps); pick != nil {
			confidence := 0.9
			if comps.Item != "" && comps.Brand != "" && ParseUnit(comps.Quantity).HasUnit() {
				confidence = 0.99
			}
			if o.enableDebugLogging {
				log.Printf("[STORES] %q matched via priority components: %q", target, pick.Title)
			}
			return &domain.MatchResult{
				Selected:     pick,
				Confidence:   confidence,
				ConfidenceOK: true,
				Reason:       domain.ReasonPrioritySelection,
			}
		}
	}

	result, err := o.matcher.Match(ctx, MatchRequest{
		Query:         req.Query,
		Candidates:    subset,
		Weights:       req.Weights,
		ConfThreshold: req.ConfThreshold,
		TieDelta:      req.TieDelta,
	})
	if err != nil {
		// isolate this store's failure; siblings keep going
		log.Printf("[STORES] matching failed for %q: %v", target, err)
		return nil
	}
	return result
}

// extractComponents runs the optional component extractor once per query.
// Extraction failure is a degradation, never a request failure.
func (o *StoreOrchestrator) extractComponents(ctx context.Context, query string) *domain.QueryComponents {
	if o.extractor == nil {
		return nil
	}

	extractCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	comps, err := o.extractor.ExtractComponents(extractCtx, query)
	if err != nil {
		log.Printf("[STORES] component extraction unavailable: %v", err)
		return nil
	}
	if comps == nil || (comps.Brand == "" && comps.Item == "" && comps.Quantity == "") {
		return nil
	}
	if o.enableDebugLogging {
		log.Printf("[STORES] extracted components: brand=%q item=%q quantity=%q", comps.Brand, comps.Item, comps.Quantity)
	}
	return comps
}

// candidatesForStore collects every candidate whose source store matches the
// target, preserving input order so downstream tie-breaks stay stable. All
// source spellings of the same chain ("Walmart", "Walmart Supercenter")
// contribute to the subset.
func candidatesForStore(target string, candidates []domain.Candidate) []domain.Candidate {
	var subset []domain.Candidate
	for _, c := range candidates {
		source := strings.TrimSpace(c.Source)
		if source == "" {
			source = "Unknown"
		}
		if storeNamesMatch(source, target) {
			subset = append(subset, c)
		}
	}
	return subset
}

// storeNamesMatch compares store names: exact case-insensitive for everyone,
// plus single-word overlap for the major chains whose scraped names vary.
func storeNamesMatch(a, b string) bool {
	al := strings.ToLower(strings.TrimSpace(a))
	bl := strings.ToLower(strings.TrimSpace(b))
	if al == bl {
		return true
	}

	major := false
	for _, chain := range majorStoreChains {
		if strings.Contains(al, chain) || strings.Contains(bl, chain) {
			major = true
			break
		}
	}
	if !major {
		return false
	}

	aWords := make(map[string]bool)
	for _, w := range strings.Fields(al) {
		if len(w) > 1 {
			aWords[w] = true
		}
	}
	for _, w := range strings.Fields(bl) {
		if len(w) > 1 && aWords[w] {
			return true
		}
	}
	return false
}
