package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cartscout/backend/internal/domain"
)

// extractionPrompt asks for the three query components as bare JSON. Models
// that wrap the object in markdown fences are handled by stripFences.
const extractionPrompt = `Extract the brand, item, and quantity from this grocery search query.
Respond with only a JSON object: {"brand": "...", "item": "...", "quantity": "..."}.
Use an empty string for any component not present in the query.
Query: %s`

// Extractor calls a chat-completions endpoint to split a free-text query into
// brand, item, and quantity. It implements domain.ComponentExtractor.
type Extractor struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewExtractor creates a new component extractor
func NewExtractor(apiKey, baseURL, model string) *Extractor {
	limiter := rate.NewLimiter(rate.Limit(5), 10)

	return &Extractor{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: limiter,
	}
}

// SetDebug enables request/response logging
func (e *Extractor) SetDebug(enabled bool) {
	e.debug = enabled
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type extractedComponents struct {
	Brand    string `json:"brand"`
	Item     string `json:"item"`
	Quantity string `json:"quantity"`
}

// ExtractComponents asks the model for the query's brand, item, and quantity.
// Any failure surfaces ErrExtractionFailed; callers treat that as a
// degradation and continue without components.
func (e *Extractor) ExtractComponents(ctx context.Context, query string) (*domain.QueryComponents, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidRequest)
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, query)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/chat/completions", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if e.debug {
			log.Printf("[LLM] API error - status: %d, body: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrExtractionFailed, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", domain.ErrExtractionFailed)
	}

	content := stripFences(chatResp.Choices[0].Message.Content)

	var extracted extractedComponents
	if err := json.Unmarshal([]byte(content), &extracted); err != nil {
		if e.debug {
			log.Printf("[LLM] unparseable extraction output: %q", content)
		}
		return nil, fmt.Errorf("%w: invalid JSON in model output", domain.ErrExtractionFailed)
	}

	return &domain.QueryComponents{
		Brand:    strings.TrimSpace(extracted.Brand),
		Item:     strings.TrimSpace(extracted.Item),
		Quantity: strings.TrimSpace(extracted.Quantity),
	}, nil
}

// stripFences removes a markdown code fence wrapper, with or without a
// language tag, leaving the inner JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
