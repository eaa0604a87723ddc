package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Matching   MatchingConfig
	Embeddings EmbeddingsConfig
	Search     SearchConfig
	LLM        LLMConfig
	Cache      CacheConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MatchingConfig holds the scoring weights and selection thresholds
type MatchingConfig struct {
	LexicalWeight      float64  `mapstructure:"lexical_weight"`
	SemanticWeight     float64  `mapstructure:"semantic_weight"`
	PartialWeight      float64  `mapstructure:"partial_weight"`
	BrandWeight        float64  `mapstructure:"brand_weight"`
	ConfThreshold      float64  `mapstructure:"conf_threshold"`
	TieDelta           float64  `mapstructure:"tie_delta"`
	KnownBrands        []string `mapstructure:"known_brands"`
	StoreParallelism   int      `mapstructure:"store_parallelism"`
	EnableDebugLogging bool     `mapstructure:"enable_debug_logging"`
}

// EmbeddingsConfig holds the embeddings provider configuration
type EmbeddingsConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig holds the shopping-search supplier configuration
type SearchConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// LLMConfig holds the component-extraction model configuration
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "none"
	TTL  time.Duration `mapstructure:"ttl"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartscout/")

	// Environment variable settings
	v.SetEnvPrefix("CARTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Matching defaults
	v.SetDefault("matching.lexical_weight", 0.35)
	v.SetDefault("matching.semantic_weight", 0.25)
	v.SetDefault("matching.partial_weight", 0.15)
	v.SetDefault("matching.brand_weight", 0.10)
	v.SetDefault("matching.conf_threshold", 0.40)
	v.SetDefault("matching.tie_delta", 0.08)
	v.SetDefault("matching.store_parallelism", 4)
	v.SetDefault("matching.enable_debug_logging", false)

	// Embeddings defaults. API keys default to empty so AutomaticEnv can bind
	// them; viper only surfaces env vars for keys it already knows about.
	v.SetDefault("embeddings.api_key", "")
	v.SetDefault("embeddings.base_url", "https://api.openai.com")
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.timeout", "5s")

	// Search supplier defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://serpapi.com")

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.openai.com")
	v.SetDefault("llm.model", "gpt-4o-mini")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "1h")
}

// validate validates the configuration
func validate(config *Config) error {
	m := config.Matching

	for name, w := range map[string]float64{
		"lexical_weight":  m.LexicalWeight,
		"semantic_weight": m.SemanticWeight,
		"partial_weight":  m.PartialWeight,
		"brand_weight":    m.BrandWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("matching.%s must be in [0,1], got: %v", name, w)
		}
	}

	if m.ConfThreshold <= 0 || m.ConfThreshold >= 1 {
		return fmt.Errorf("matching.conf_threshold must be in (0,1), got: %v", m.ConfThreshold)
	}
	if m.TieDelta <= 0 || m.TieDelta >= 1 {
		return fmt.Errorf("matching.tie_delta must be in (0,1), got: %v", m.TieDelta)
	}
	if m.StoreParallelism <= 0 {
		return fmt.Errorf("matching.store_parallelism must be positive, got: %d", m.StoreParallelism)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	return nil
}
