package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("CARTSCOUT_SERVER_PORT")
		os.Unsetenv("CARTSCOUT_SERVER_ENVIRONMENT")
		os.Unsetenv("CARTSCOUT_MATCHING_CONF_THRESHOLD")
		os.Unsetenv("CARTSCOUT_MATCHING_TIE_DELTA")
		os.Unsetenv("CARTSCOUT_MATCHING_STORE_PARALLELISM")
		os.Unsetenv("CARTSCOUT_EMBEDDINGS_API_KEY")
		os.Unsetenv("CARTSCOUT_EMBEDDINGS_MODEL")
		os.Unsetenv("CARTSCOUT_SEARCH_API_KEY")
		os.Unsetenv("CARTSCOUT_LLM_API_KEY")
		os.Unsetenv("CARTSCOUT_CACHE_TYPE")
		os.Unsetenv("CARTSCOUT_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Matching.LexicalWeight != 0.35 {
			t.Errorf("Matching.LexicalWeight = %v, want 0.35", cfg.Matching.LexicalWeight)
		}
		if cfg.Matching.ConfThreshold != 0.40 {
			t.Errorf("Matching.ConfThreshold = %v, want 0.40", cfg.Matching.ConfThreshold)
		}
		if cfg.Matching.TieDelta != 0.08 {
			t.Errorf("Matching.TieDelta = %v, want 0.08", cfg.Matching.TieDelta)
		}
		if cfg.Matching.StoreParallelism != 4 {
			t.Errorf("Matching.StoreParallelism = %d, want 4", cfg.Matching.StoreParallelism)
		}
		if cfg.Embeddings.Model != "text-embedding-3-small" {
			t.Errorf("Embeddings.Model = %s, want text-embedding-3-small", cfg.Embeddings.Model)
		}
		if cfg.Embeddings.Timeout != 5*time.Second {
			t.Errorf("Embeddings.Timeout = %v, want 5s", cfg.Embeddings.Timeout)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("CARTSCOUT_SERVER_PORT", "9090")
		os.Setenv("CARTSCOUT_SERVER_ENVIRONMENT", "production")
		os.Setenv("CARTSCOUT_MATCHING_CONF_THRESHOLD", "0.55")
		os.Setenv("CARTSCOUT_EMBEDDINGS_API_KEY", "custom-key")
		os.Setenv("CARTSCOUT_SEARCH_API_KEY", "search-key")
		os.Setenv("CARTSCOUT_LLM_API_KEY", "llm-key")
		os.Setenv("CARTSCOUT_CACHE_TTL", "24h")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Matching.ConfThreshold != 0.55 {
			t.Errorf("Matching.ConfThreshold = %v, want 0.55", cfg.Matching.ConfThreshold)
		}
		if cfg.Embeddings.APIKey != "custom-key" {
			t.Errorf("Embeddings.APIKey = %s, want custom-key", cfg.Embeddings.APIKey)
		}
		if cfg.Search.APIKey != "search-key" {
			t.Errorf("Search.APIKey = %s, want search-key", cfg.Search.APIKey)
		}
		if cfg.LLM.APIKey != "llm-key" {
			t.Errorf("LLM.APIKey = %s, want llm-key", cfg.LLM.APIKey)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
	})

	t.Run("fails validation for out-of-range threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("CARTSCOUT_MATCHING_CONF_THRESHOLD", "1.5")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for threshold > 1")
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("CARTSCOUT_CACHE_TYPE", "redis")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for unsupported cache type")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Matching: MatchingConfig{
				LexicalWeight:    0.35,
				SemanticWeight:   0.25,
				PartialWeight:    0.15,
				BrandWeight:      0.10,
				ConfThreshold:    0.40,
				TieDelta:         0.08,
				StoreParallelism: 4,
			},
			Cache: CacheConfig{Type: "memory"},
		}
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects negative weight", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.BrandWeight = -0.1
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for negative weight")
		}
	})

	t.Run("rejects zero tie delta", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.TieDelta = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero tie delta")
		}
	})

	t.Run("rejects non-positive parallelism", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.StoreParallelism = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero parallelism")
		}
	})

	t.Run("rejects cache type none only when unknown", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Type = "none"
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for cache type none", err)
		}

		cfg.Cache.Type = "memcached"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for unknown cache type")
		}
	})
}
