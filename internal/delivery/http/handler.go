package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/infrastructure/cache"
	"github.com/cartscout/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher      *usecase.MatchingService
	orchestrator *usecase.StoreOrchestrator
	searchClient domain.SearchClient
	cacheRepo    domain.CacheRepository
	cacheTTL     time.Duration
}

// NewHandler creates a new HTTP handler. The search client and cache are
// optional; nil disables the corresponding endpoint or behavior.
func NewHandler(
	matcher *usecase.MatchingService,
	orchestrator *usecase.StoreOrchestrator,
	searchClient domain.SearchClient,
	cacheRepo domain.CacheRepository,
	cacheTTL time.Duration,
) *Handler {
	return &Handler{
		matcher:      matcher,
		orchestrator: orchestrator,
		searchClient: searchClient,
		cacheRepo:    cacheRepo,
		cacheTTL:     cacheTTL,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"service":              "cartscout-backend",
		"version":              "1.0.0",
		"embeddings_available": h.matcher.EmbeddingsReady(),
	})
}

// matchRequestBody is the JSON body for single and batch match requests.
type matchRequestBody struct {
	Query            string             `json:"query" binding:"required"`
	Candidates       []domain.Candidate `json:"candidates"`
	Weights          *domain.Weights    `json:"weights,omitempty"`
	ConfThreshold    *float64           `json:"confThreshold,omitempty"`
	TieDelta         *float64           `json:"tieDelta,omitempty"`
	GeneralQueryMode bool               `json:"generalQueryMode,omitempty"`
}

func (b matchRequestBody) toUsecase() usecase.MatchRequest {
	return usecase.MatchRequest{
		Query:            b.Query,
		Candidates:       b.Candidates,
		Weights:          b.Weights,
		ConfThreshold:    b.ConfThreshold,
		TieDelta:         b.TieDelta,
		GeneralQueryMode: b.GeneralQueryMode,
	}
}

// Match handles a single query-against-candidates match request
func (h *Handler) Match(c *gin.Context) {
	var body matchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cacheKey := h.cacheKey(body)
	if cacheKey != "" {
		if cached, err := h.cacheRepo.Get(c.Request.Context(), cacheKey); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := h.matcher.Match(c.Request.Context(), body.toUsecase())
	if err != nil {
		h.writeMatchError(c, err)
		return
	}

	if cacheKey != "" {
		if err := h.cacheRepo.Set(c.Request.Context(), cacheKey, result, h.cacheTTL); err != nil {
			log.Printf("[HTTP] cache write failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// storeMatchRequestBody is the JSON body for multi-store match requests.
type storeMatchRequestBody struct {
	Query         string             `json:"query" binding:"required"`
	Candidates    []domain.Candidate `json:"candidates"`
	TargetStores  []string           `json:"targetStores" binding:"required"`
	Weights       *domain.Weights    `json:"weights,omitempty"`
	ConfThreshold *float64           `json:"confThreshold,omitempty"`
	TieDelta      *float64           `json:"tieDelta,omitempty"`
}

// MatchStores handles a multi-store match request
func (h *Handler) MatchStores(c *gin.Context) {
	var body storeMatchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	set, err := h.orchestrator.MatchStores(c.Request.Context(), usecase.StoreMatchRequest{
		Query:         body.Query,
		Candidates:    body.Candidates,
		TargetStores:  body.TargetStores,
		Weights:       body.Weights,
		ConfThreshold: body.ConfThreshold,
		TieDelta:      body.TieDelta,
	})
	if err != nil {
		h.writeMatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, set)
}

// batchRequestBody is the JSON body for batch match requests.
type batchRequestBody struct {
	Requests    []matchRequestBody `json:"requests" binding:"required"`
	Parallelism int                `json:"parallelism,omitempty"`
}

type batchItemResponse struct {
	Result *domain.MatchResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// MatchBatch handles a batch of independent match requests
func (h *Handler) MatchBatch(c *gin.Context) {
	var body batchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(body.Requests) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requests must not be empty"})
		return
	}

	requests := make([]usecase.MatchRequest, len(body.Requests))
	for i, r := range body.Requests {
		requests[i] = r.toUsecase()
	}

	results := h.matcher.MatchBatch(c.Request.Context(), requests, body.Parallelism)

	items := make([]batchItemResponse, len(results))
	for i, r := range results {
		if r.Err != nil {
			items[i] = batchItemResponse{Error: r.Err.Error()}
			continue
		}
		items[i] = batchItemResponse{Result: r.Result}
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}

// searchRequestBody is the JSON body for candidate retrieval requests.
type searchRequestBody struct {
	Query    string `json:"query" binding:"required"`
	Location string `json:"location,omitempty"`
}

// Search fetches raw candidate listings from the search supplier
func (h *Handler) Search(c *gin.Context) {
	if h.searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search supplier not configured"})
		return
	}

	var body searchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	candidates, skipped, err := h.searchClient.SearchProducts(c.Request.Context(), body.Query, body.Location)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoResults):
			c.JSON(http.StatusNotFound, gin.H{"error": "no results for query"})
		case errors.Is(err, domain.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "search supplier rate limit exceeded"})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("[HTTP] search failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "search supplier unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"candidates": candidates,
		"skipped":    skipped,
	})
}

// cacheKey fingerprints a match request; empty when caching is disabled or
// the request carries per-request overrides worth bypassing the cache for.
func (h *Handler) cacheKey(body matchRequestBody) string {
	if h.cacheRepo == nil || h.cacheTTL <= 0 || body.GeneralQueryMode {
		return ""
	}

	weights := domain.DefaultWeights()
	if body.Weights != nil {
		weights = *body.Weights
	}
	confThreshold := 0.0
	if body.ConfThreshold != nil {
		confThreshold = *body.ConfThreshold
	}
	tieDelta := 0.0
	if body.TieDelta != nil {
		tieDelta = *body.TieDelta
	}

	return cache.Fingerprint(body.Query, body.Candidates, weights, confThreshold, tieDelta)
}

// writeMatchError maps domain errors to HTTP statuses
func (h *Handler) writeMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request cancelled"})
	default:
		log.Printf("[HTTP] match failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
