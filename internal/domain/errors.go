package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMalformedCandidate is returned when a candidate is missing required fields
	ErrMalformedCandidate = errors.New("malformed candidate")

	// ErrEmbeddingUnavailable is returned when the embedding subsystem cannot serve a request
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractionFailed is returned when query component extraction fails
	ErrExtractionFailed = errors.New("query component extraction failed")

	// ErrSearchAPIFailure is returned when the shopping-search supplier request fails
	ErrSearchAPIFailure = errors.New("search API request failed")

	// ErrNoResults is returned when the shopping-search supplier has no listings for a query
	ErrNoResults = errors.New("no search results")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
