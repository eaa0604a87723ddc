package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cartscout/backend/config"
	httpDelivery "github.com/cartscout/backend/internal/delivery/http"
	"github.com/cartscout/backend/internal/domain"
	"github.com/cartscout/backend/internal/infrastructure/cache"
	"github.com/cartscout/backend/internal/infrastructure/embeddings"
	"github.com/cartscout/backend/internal/infrastructure/llm"
	"github.com/cartscout/backend/internal/infrastructure/searchapi"
	"github.com/cartscout/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CartScout Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	debug := cfg.Server.Environment == "development" || cfg.Matching.EnableDebugLogging

	// Embeddings provider is optional; without it the semantic signal runs on
	// the lexical fallback and /health reports embeddings_available=false.
	var embedder domain.Embedder
	if cfg.Embeddings.APIKey != "" {
		client := embeddings.NewClient(cfg.Embeddings.APIKey, cfg.Embeddings.BaseURL, cfg.Embeddings.Model)
		client.SetDebug(debug)
		embedder = client
		log.Printf("Embeddings configured: %s (%s)", cfg.Embeddings.BaseURL, cfg.Embeddings.Model)
	} else {
		log.Printf("WARNING: embeddings API key not set - semantic scoring will use the lexical fallback")
	}

	var searchClient domain.SearchClient
	if cfg.Search.APIKey != "" {
		client := searchapi.NewClient(cfg.Search.APIKey, cfg.Search.BaseURL)
		client.SetDebug(debug)
		searchClient = client
		log.Printf("Search supplier configured: %s", cfg.Search.BaseURL)
	} else {
		log.Printf("Search supplier not configured - /api/v1/search disabled")
	}

	var extractor domain.ComponentExtractor
	if cfg.LLM.APIKey != "" {
		ext := llm.NewExtractor(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		ext.SetDebug(debug)
		extractor = ext
		log.Printf("Component extractor configured: %s (%s)", cfg.LLM.BaseURL, cfg.LLM.Model)
	} else {
		log.Printf("Component extractor not configured - priority selection disabled")
	}

	var cacheRepo domain.CacheRepository
	if cfg.Cache.Type == "memory" {
		cacheRepo = cache.NewMemoryCache()
		log.Printf("Cache: memory, TTL %s", cfg.Cache.TTL)
	} else {
		log.Printf("Cache disabled")
	}

	// Initialize usecase layer
	matcher := usecase.NewMatchingService(embedder, usecase.MatchConfig{
		Weights: domain.Weights{
			Lexical:  cfg.Matching.LexicalWeight,
			Semantic: cfg.Matching.SemanticWeight,
			Partial:  cfg.Matching.PartialWeight,
			Brand:    cfg.Matching.BrandWeight,
		},
		ConfThreshold:      cfg.Matching.ConfThreshold,
		TieDelta:           cfg.Matching.TieDelta,
		KnownBrands:        cfg.Matching.KnownBrands,
		EmbeddingTimeout:   cfg.Embeddings.Timeout,
		EnableDebugLogging: debug,
	})

	orchestrator := usecase.NewStoreOrchestrator(matcher, extractor, cfg.Matching.StoreParallelism, debug)

	log.Printf("Matching: threshold=%.2f, tie_delta=%.2f, parallelism=%d, debug=%v",
		cfg.Matching.ConfThreshold,
		cfg.Matching.TieDelta,
		cfg.Matching.StoreParallelism,
		debug)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(matcher, orchestrator, searchClient, cacheRepo, cfg.Cache.TTL)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
