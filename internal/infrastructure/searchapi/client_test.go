package searchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscout/backend/internal/domain"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
}

func TestSearchProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "whole milk", r.URL.Query().Get("q"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Austin, TX", r.URL.Query().Get("location"))

		response := searchResponse{
			ShoppingResults: []shoppingResult{
				{Position: 1, Title: "Whole Milk 1 Gallon", ExtractedPrice: 3.27, Source: "Walmart", Rating: 4.5, Reviews: 120},
				{Position: 2, Title: "Whole Milk Half Gallon", ExtractedPrice: 2.12, Source: "Target"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	ctx := context.Background()

	candidates, skipped, err := client.SearchProducts(ctx, "whole milk", "Austin, TX")

	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Whole Milk 1 Gallon", candidates[0].Title)
	assert.Equal(t, 3.27, candidates[0].Price)
	assert.Equal(t, "Walmart", candidates[0].Source)
	assert.Equal(t, 4.5, candidates[0].Rating)
	assert.Equal(t, 120, candidates[0].ReviewCount)
}

func TestSearchProducts_SkipsMalformedListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := searchResponse{
			ShoppingResults: []shoppingResult{
				{Position: 1, Title: "Whole Milk 1 Gallon", ExtractedPrice: 3.27, Source: "Walmart"},
				{Position: 2, Title: "", ExtractedPrice: 2.12, Source: "Target"},
				{Position: 3, Title: "Whole Milk", ExtractedPrice: 0, Source: "Kroger"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	candidates, skipped, err := client.SearchProducts(context.Background(), "whole milk", "")

	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	require.Len(t, skipped, 2)
	assert.Equal(t, "missing title", skipped[0].Reason)
	assert.Equal(t, "missing or non-positive price", skipped[1].Reason)
}

func TestSearchProducts_EmptyQuery(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com")

	_, _, err := client.SearchProducts(context.Background(), "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSearchProducts_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	candidates, _, err := client.SearchProducts(context.Background(), "zzzzz", "")

	assert.Nil(t, candidates)
	assert.ErrorIs(t, err, domain.ErrNoResults)
}

func TestSearchProducts_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	_, _, err := client.SearchProducts(context.Background(), "whole milk", "")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSearchProducts_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	_, _, err := client.SearchProducts(context.Background(), "whole milk", "")

	assert.ErrorIs(t, err, domain.ErrSearchAPIFailure)
}

func TestMapResults(t *testing.T) {
	candidates, skipped := mapResults([]shoppingResult{
		{Position: 1, Title: "Whole Milk", ExtractedPrice: 3.27, Source: "Walmart"},
		{Position: -1, Title: "Whole Milk", ExtractedPrice: 3.27, Source: "Walmart"},
	})

	assert.Len(t, candidates, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, "negative position", skipped[0].Reason)
}
