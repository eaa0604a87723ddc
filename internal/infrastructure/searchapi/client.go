package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/cartscout/backend/internal/domain"
)

// Client fetches raw shopping listings from the search supplier and maps them
// into validated candidates. It implements domain.SearchClient.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new shopping-search client. The supplier allows 10
// requests per second on the standard plan.
func NewClient(apiKey, baseURL string) *Client {
	limiter := rate.NewLimiter(rate.Limit(10), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// searchResponse mirrors the supplier's shopping-results payload. Only the
// fields the matcher consumes are decoded.
type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
}

type shoppingResult struct {
	Position       int     `json:"position"`
	Title          string  `json:"title"`
	ExtractedPrice float64 `json:"extracted_price"`
	Source         string  `json:"source"`
	Rating         float64 `json:"rating"`
	Reviews        int     `json:"reviews"`
}

// SearchProducts queries the supplier for shopping listings near the given
// location. Malformed listings are returned separately with a reason rather
// than silently dropped.
func (c *Client) SearchProducts(ctx context.Context, query, location string) ([]domain.Candidate, []domain.SkippedCandidate, error) {
	if query == "" {
		return nil, nil, fmt.Errorf("%w: empty query", domain.ErrInvalidRequest)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter error: %w", err)
	}

	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	if location != "" {
		params.Set("location", location)
	}

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "CartScout/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		if c.debug {
			log.Printf("[SEARCH] API error - status: %d, body: %s", resp.StatusCode, string(body))
		}
		return nil, nil, fmt.Errorf("%w: status %d", domain.ErrSearchAPIFailure, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates, skipped := mapResults(searchResp.ShoppingResults)
	if c.debug {
		log.Printf("[SEARCH] %q -> %d candidates, %d skipped", query, len(candidates), len(skipped))
	}
	if len(candidates) == 0 && len(skipped) == 0 {
		return nil, nil, fmt.Errorf("%w: query %q", domain.ErrNoResults, query)
	}

	return candidates, skipped, nil
}

// mapResults converts raw listings into validated candidates, collecting the
// invalid ones with a reason.
func mapResults(results []shoppingResult) ([]domain.Candidate, []domain.SkippedCandidate) {
	candidates := make([]domain.Candidate, 0, len(results))
	var skipped []domain.SkippedCandidate

	for _, r := range results {
		candidate := domain.Candidate{
			Title:       r.Title,
			Price:       r.ExtractedPrice,
			Source:      r.Source,
			Position:    r.Position,
			Rating:      r.Rating,
			ReviewCount: r.Reviews,
		}
		if err := candidate.Validate(); err != nil {
			skipped = append(skipped, domain.SkippedCandidate{
				Candidate: candidate,
				Reason:    skipReason(r),
			})
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, skipped
}

// skipReason names what is wrong with a raw listing, most specific first.
func skipReason(r shoppingResult) string {
	switch {
	case r.Title == "":
		return "missing title"
	case math.IsNaN(r.ExtractedPrice) || math.IsInf(r.ExtractedPrice, 0):
		return "non-finite price"
	case r.ExtractedPrice <= 0:
		return "missing or non-positive price"
	case r.Position < 0:
		return "negative position"
	default:
		return "failed validation"
	}
}
