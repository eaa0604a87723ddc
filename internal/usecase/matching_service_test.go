package usecase

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cartscout/backend/internal/domain"
)

func newTestService() *MatchingService {
	return NewMatchingService(nil, MatchConfig{})
}

func TestNewMatchingService(t *testing.T) {
	t.Run("applies defaults for zero config", func(t *testing.T) {
		svc := NewMatchingService(nil, MatchConfig{})
		if svc.confThreshold != 0.40 {
			t.Errorf("confThreshold = %v, want 0.40", svc.confThreshold)
		}
		if svc.tieDelta != 0.08 {
			t.Errorf("tieDelta = %v, want 0.08", svc.tieDelta)
		}
		if svc.weights != domain.DefaultWeights() {
			t.Errorf("weights = %v, want defaults", svc.weights)
		}
	})

	t.Run("keeps provided thresholds", func(t *testing.T) {
		svc := NewMatchingService(nil, MatchConfig{ConfThreshold: 0.55, TieDelta: 0.05})
		if svc.confThreshold != 0.55 {
			t.Errorf("confThreshold = %v, want 0.55", svc.confThreshold)
		}
		if svc.tieDelta != 0.05 {
			t.Errorf("tieDelta = %v, want 0.05", svc.tieDelta)
		}
	})

	t.Run("nil embedder means fallback mode", func(t *testing.T) {
		if newTestService().EmbeddingsReady() {
			t.Error("EmbeddingsReady() = true, want false for nil embedder")
		}
	})
}

func TestMatch_InputValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("empty query is an error", func(t *testing.T) {
		_, err := svc.Match(ctx, MatchRequest{Query: "   "})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("empty candidate set is a result, not an error", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{Query: "whole milk"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Selected != nil {
			t.Errorf("Selected = %v, want nil", result.Selected)
		}
		if result.Reason != domain.ReasonNoCandidates {
			t.Errorf("Reason = %v, want no_candidates", result.Reason)
		}
	})

	t.Run("malformed candidates are skipped with a reason", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "whole milk",
			Candidates: []domain.Candidate{
				{Title: "Whole Milk 1 Gallon", Price: 3.99, Source: "Walmart"},
				{Title: "", Price: 2.99, Source: "Walmart"},
				{Title: "Whole Milk Half Gallon", Price: math.NaN(), Source: "Target"},
				{Title: "Whole Milk", Price: -1.50, Source: "Kroger"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Skipped) != 3 {
			t.Fatalf("Skipped = %d entries, want 3", len(result.Skipped))
		}
		for _, s := range result.Skipped {
			if s.Reason == "" {
				t.Error("skipped candidate has empty reason")
			}
		}
		if result.Selected == nil || result.Selected.Title != "Whole Milk 1 Gallon" {
			t.Errorf("Selected = %+v, want the one valid candidate", result.Selected)
		}
	})

	t.Run("all candidates malformed yields no_candidates", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "whole milk",
			Candidates: []domain.Candidate{
				{Title: "", Price: 1},
				{Title: "Milk", Price: 0},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Reason != domain.ReasonNoCandidates {
			t.Errorf("Reason = %v, want no_candidates", result.Reason)
		}
		if len(result.Skipped) != 2 {
			t.Errorf("Skipped = %d entries, want 2", len(result.Skipped))
		}
	})
}

func TestMatch_Selection(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("selects the obvious match", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "Great Value Whole Milk 1 Gallon",
			Candidates: []domain.Candidate{
				{Title: "Great Value Whole Vitamin D Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
				{Title: "Purina Dog Chow 20 lb", Price: 18.98, Source: "Walmart"},
				{Title: "Charmin Toilet Paper 12 Rolls", Price: 11.97, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Selected == nil || result.Selected.Title != "Great Value Whole Vitamin D Milk 1 Gallon" {
			t.Fatalf("Selected = %+v, want the milk listing", result.Selected)
		}
		if !result.ConfidenceOK {
			t.Errorf("ConfidenceOK = false, confidence = %v", result.Confidence)
		}
		if result.Reason != domain.ReasonClearWinner {
			t.Errorf("Reason = %v, want clear_winner", result.Reason)
		}
		if !result.SemanticFallback {
			t.Error("SemanticFallback = false, want true with nil embedder")
		}
	})

	t.Run("tie broken by price per unit", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "whole milk",
			Candidates: []domain.Candidate{
				{Title: "Whole Milk 1 gal", Price: 4.00, Source: "Walmart"},
				{Title: "Whole Milk 2 gal", Price: 6.00, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// the 2-gallon jug is pricier outright but cheaper per liter
		if result.Selected == nil || result.Selected.Title != "Whole Milk 2 gal" {
			t.Fatalf("Selected = %+v, want the 2 gal listing", result.Selected)
		}
		if result.Reason != domain.ReasonTieBrokenByPricePerUnit {
			t.Errorf("Reason = %v, want tie_broken_by_price_per_unit", result.Reason)
		}
	})

	t.Run("tie without units broken by raw price", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "whole milk",
			Candidates: []domain.Candidate{
				{Title: "Whole Milk", Price: 3.49, Source: "Walmart"},
				{Title: "Whole Milk", Price: 2.99, Source: "Target"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Selected == nil || result.Selected.Price != 2.99 {
			t.Fatalf("Selected = %+v, want the cheaper listing", result.Selected)
		}
		if result.Reason != domain.ReasonTieBrokenByPrice {
			t.Errorf("Reason = %v, want tie_broken_by_price", result.Reason)
		}
	})

	t.Run("mixed dimensions fall back to raw price", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "whole milk",
			Candidates: []domain.Candidate{
				{Title: "Whole Milk 1 gal", Price: 4.00, Source: "Walmart"},
				{Title: "Whole Milk 8 oz", Price: 1.00, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// volume vs mass is not a fair per-unit comparison
		if result.Reason != domain.ReasonTieBrokenByPrice {
			t.Errorf("Reason = %v, want tie_broken_by_price", result.Reason)
		}
		if result.Selected == nil || result.Selected.Price != 1.00 {
			t.Errorf("Selected = %+v, want the cheaper listing", result.Selected)
		}
	})

	t.Run("nothing relevant yields low confidence with best-effort pick", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "organic quinoa",
			Candidates: []domain.Candidate{
				{Title: "Windshield Wiper Fluid", Price: 3.99, Source: "Walmart"},
				{Title: "Phone Charger Cable", Price: 7.99, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ConfidenceOK {
			t.Errorf("ConfidenceOK = true, confidence = %v", result.Confidence)
		}
		if result.Reason != domain.ReasonLowConfidence {
			t.Errorf("Reason = %v, want low_confidence", result.Reason)
		}
		if result.Selected == nil {
			t.Error("Selected = nil, want best-effort top candidate for diagnostics")
		}
	})

	t.Run("ranked output is sorted by confidence", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "2% milk",
			Candidates: []domain.Candidate{
				{Title: "Paper Plates 100 ct", Price: 5.99, Source: "Walmart"},
				{Title: "2% Reduced Fat Milk 1 Gallon", Price: 3.18, Source: "Walmart"},
				{Title: "Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 1; i < len(result.Ranked); i++ {
			if result.Ranked[i].Confidence > result.Ranked[i-1].Confidence {
				t.Errorf("Ranked not sorted at %d: %v > %v", i, result.Ranked[i].Confidence, result.Ranked[i-1].Confidence)
			}
		}
		if result.Ranked[0].Candidate.Title != "2% Reduced Fat Milk 1 Gallon" {
			t.Errorf("top ranked = %q, want the 2%% milk listing", result.Ranked[0].Candidate.Title)
		}
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		req := MatchRequest{
			Query: "whole milk gallon",
			Candidates: []domain.Candidate{
				{Title: "Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
				{Title: "2% Milk 1 Gallon", Price: 3.18, Source: "Walmart"},
				{Title: "Whole Milk Half Gallon", Price: 2.12, Source: "Walmart"},
			},
		}
		first, err := svc.Match(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := svc.Match(ctx, req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			again.ProcessingTimeMs = first.ProcessingTimeMs
			if !reflect.DeepEqual(first, again) {
				t.Fatalf("run %d differed:\nfirst: %+v\nagain: %+v", i, first, again)
			}
		}
	})
}

func TestMatch_Overrides(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("per-request threshold override", func(t *testing.T) {
		strict := 0.99
		result, err := svc.Match(ctx, MatchRequest{
			Query:         "whole milk",
			ConfThreshold: &strict,
			Candidates: []domain.Candidate{
				{Title: "Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ConfidenceOK {
			t.Errorf("ConfidenceOK = true under a 0.99 threshold, confidence = %v", result.Confidence)
		}
	})

	t.Run("per-request weights override", func(t *testing.T) {
		// all weight on the lexical signal: identical token sets win outright
		weights := domain.Weights{Lexical: 1.0}
		result, err := svc.Match(ctx, MatchRequest{
			Query:   "whole milk",
			Weights: &weights,
			Candidates: []domain.Candidate{
				{Title: "Whole Milk", Price: 3.49, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(result.Confidence-1.0) > 1e-9 {
			t.Errorf("Confidence = %v, want 1.0 with full lexical weight", result.Confidence)
		}
	})
}

func TestMatch_GeneralQueryMode(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("general query picks cheapest relevant when opted in", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query:            "milk",
			GeneralQueryMode: true,
			Candidates: []domain.Candidate{
				{Title: "Fairlife Whole Milk 52 fl oz", Price: 4.48, Source: "Walmart"},
				{Title: "Great Value Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
				{Title: "Dog Treats Variety Pack", Price: 1.99, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Reason != domain.ReasonGeneralQueryCheapest {
			t.Fatalf("Reason = %v, want general_query_cheapest", result.Reason)
		}
		// the dog treats are cheaper but irrelevant
		if result.Selected == nil || result.Selected.Title != "Great Value Whole Milk 1 Gallon" {
			t.Errorf("Selected = %+v, want the cheapest milk listing", result.Selected)
		}
	})

	t.Run("specific query ignores general mode", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query:            "Great Value Whole Milk 1 Gallon",
			GeneralQueryMode: true,
			Candidates: []domain.Candidate{
				{Title: "Great Value Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Reason == domain.ReasonGeneralQueryCheapest {
			t.Errorf("Reason = %v, specific query must use the scoring pipeline", result.Reason)
		}
	})

	t.Run("general mode off never uses the cheapest path", func(t *testing.T) {
		result, err := svc.Match(ctx, MatchRequest{
			Query: "milk",
			Candidates: []domain.Candidate{
				{Title: "Great Value Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Reason == domain.ReasonGeneralQueryCheapest {
			t.Errorf("Reason = %v, want a scoring-pipeline reason", result.Reason)
		}
	})
}

func TestMatch_Cancellation(t *testing.T) {
	svc := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Match(ctx, MatchRequest{
		Query: "whole milk",
		Candidates: []domain.Candidate{
			{Title: "Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
		},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMatchBatch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	requests := []MatchRequest{
		{Query: "whole milk", Candidates: []domain.Candidate{
			{Title: "Whole Milk 1 Gallon", Price: 3.27, Source: "Walmart"},
		}},
		{Query: "   "}, // invalid: empty query
		{Query: "eggs", Candidates: []domain.Candidate{
			{Title: "Large White Eggs 12 Count", Price: 2.52, Source: "Walmart"},
		}},
	}

	results := svc.MatchBatch(ctx, requests, 2)

	if len(results) != len(requests) {
		t.Fatalf("results = %d entries, want %d", len(results), len(requests))
	}
	if results[0].Err != nil || results[0].Result == nil || results[0].Result.Selected == nil {
		t.Errorf("results[0] = %+v, want a successful match", results[0])
	}
	if !errors.Is(results[1].Err, domain.ErrInvalidRequest) {
		t.Errorf("results[1].Err = %v, want ErrInvalidRequest", results[1].Err)
	}
	if results[2].Err != nil || results[2].Result == nil {
		t.Errorf("results[2] = %+v, want a successful match", results[2])
	}
	if results[2].Result.Selected.Title != "Large White Eggs 12 Count" {
		t.Errorf("results[2] selected %q, order not preserved", results[2].Result.Selected.Title)
	}
}
