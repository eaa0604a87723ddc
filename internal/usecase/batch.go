package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cartscout/backend/internal/domain"
)

// BatchItemResult carries the outcome of one unit in a batch. Exactly one of
// Result and Err is set: a unit's input error never aborts its siblings.
type BatchItemResult struct {
	Result *domain.MatchResult
	Err    error
}

// MatchBatch processes independent match requests concurrently, up to the
// given parallelism limit, and returns results in input order. Cancellation
// is honored between units; units not yet started report the context error.
func (s *MatchingService) MatchBatch(ctx context.Context, requests []MatchRequest, parallelism int) []BatchItemResult {
	if parallelism <= 0 {
		parallelism = defaultStoreParallelism
	}

	results := make([]BatchItemResult, len(requests))

	g := new(errgroup.Group)
	g.SetLimit(parallelism)
	for i, req := range requests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchItemResult{Err: err}
				return nil
			}
			result, err := s.Match(ctx, req)
			results[i] = BatchItemResult{Result: result, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}
