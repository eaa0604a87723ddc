package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (*MatchResult, error)
	Set(ctx context.Context, key string, value *MatchResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Embedder defines the interface for sentence embedding providers.
// Implementations must be safe for concurrent use.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// SearchClient defines the interface for the shopping-search supplier that
// provides raw candidate listings per query and location.
type SearchClient interface {
	SearchProducts(ctx context.Context, query, location string) ([]Candidate, []SkippedCandidate, error)
}

// ComponentExtractor defines the interface for extracting structured
// brand/item/quantity components from a free-text query.
type ComponentExtractor interface {
	ExtractComponents(ctx context.Context, query string) (*QueryComponents, error)
}
