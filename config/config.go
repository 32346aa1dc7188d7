// Package config loads catalog settings from the environment or a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/creastat/catalog"
)

// Config holds all catalog settings.
type Config struct {
	Supabase    SupabaseConfig
	VectorStore VectorStoreConfig
	Embedding   EmbeddingConfig
	Cache       CacheConfig
	Search      SearchConfig
	Log         LogConfig
}

// SupabaseConfig configures the listing store. An empty URL selects the in-memory store.
type SupabaseConfig struct {
	URL      string
	APIKey   string
	Table    string
	CacheTTL time.Duration
}

// VectorStoreConfig selects and configures the vector index.
type VectorStoreConfig struct {
	Driver           string // "memory", "qdrant" or "pgvector"
	Namespace        string
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	PostgresDSN      string
	ChunkTokens      int
	OverlapTokens    int
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider     string // "gemini" or "openai"
	GeminiAPIKey string
	OpenAIAPIKey string
	Model        string
	Dimension    int
}

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	Driver   string // "none", "memory" or "redis"
	RedisURL string
	TTL      time.Duration
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	OverfetchFactor  int
	ScoreThreshold   float64
	DefaultLimit     int
	MaxLimit         int
	ContextBefore    int
	ContextAfter     int
	MaxContextTokens int
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads settings from envFilePath, if it exists, and the process environment.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// A missing file is fine; the environment alone is enough
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Supabase: SupabaseConfig{
			URL:      getEnv("SUPABASE_URL", ""),
			APIKey:   getEnv("SUPABASE_API_KEY", ""),
			Table:    getEnv("SUPABASE_LISTINGS_TABLE", "listings"),
			CacheTTL: getEnvAsDuration("SUPABASE_CACHE_TTL", 0),
		},
		VectorStore: VectorStoreConfig{
			Driver:           strings.ToLower(getEnv("VECTOR_STORE", "memory")),
			Namespace:        getEnv("VECTOR_NAMESPACE", "products"),
			QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
			QdrantCollection: getEnv("QDRANT_COLLECTION", "catalog"),
			PostgresDSN:      getEnv("DATABASE_URL", ""),
			ChunkTokens:      getEnvAsInt("CHUNK_MAX_TOKENS", 256),
			OverlapTokens:    getEnvAsInt("CHUNK_OVERLAP_TOKENS", 32),
		},
		Embedding: EmbeddingConfig{
			Provider:     strings.ToLower(getEnv("EMBEDDING_PROVIDER", "gemini")),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("EMBEDDING_MODEL", ""),
			Dimension:    getEnvAsInt("EMBEDDING_DIMENSION", 0),
		},
		Cache: CacheConfig{
			Driver:   strings.ToLower(getEnv("EMBEDDING_CACHE", "none")),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      getEnvAsDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		},
		Search: SearchConfig{
			OverfetchFactor:  getEnvAsInt("SEARCH_OVERFETCH_FACTOR", 2),
			ScoreThreshold:   getEnvAsFloat("SEARCH_SCORE_THRESHOLD", 0.3),
			DefaultLimit:     getEnvAsInt("SEARCH_DEFAULT_LIMIT", 10),
			MaxLimit:         getEnvAsInt("SEARCH_MAX_LIMIT", 50),
			ContextBefore:    getEnvAsInt("SEARCH_CONTEXT_BEFORE", 1),
			ContextAfter:     getEnvAsInt("SEARCH_CONTEXT_AFTER", 0),
			MaxContextTokens: getEnvAsInt("SEARCH_MAX_CONTEXT_TOKENS", 2000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	switch c.VectorStore.Driver {
	case "memory":
	case "qdrant":
		if c.VectorStore.QdrantURL == "" {
			return invalid("QDRANT_URL is required for the qdrant vector store")
		}
	case "pgvector":
		if c.VectorStore.PostgresDSN == "" {
			return invalid("DATABASE_URL is required for the pgvector vector store")
		}
	default:
		return invalid("unknown VECTOR_STORE %q", c.VectorStore.Driver)
	}

	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.GeminiAPIKey == "" {
			return invalid("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.Embedding.OpenAIAPIKey == "" {
			return invalid("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return invalid("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider)
	}

	switch c.Cache.Driver {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return invalid("REDIS_URL is required for the redis cache")
		}
	default:
		return invalid("unknown EMBEDDING_CACHE %q", c.Cache.Driver)
	}

	if c.Supabase.URL != "" && c.Supabase.APIKey == "" {
		return invalid("SUPABASE_API_KEY is required when SUPABASE_URL is set")
	}

	if c.Search.ScoreThreshold < 0 || c.Search.ScoreThreshold > 1 {
		return invalid("SEARCH_SCORE_THRESHOLD must be between 0 and 1")
	}
	if c.Search.OverfetchFactor < 1 {
		return invalid("SEARCH_OVERFETCH_FACTOR must be at least 1")
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return invalid("SEARCH_DEFAULT_LIMIT must be between 1 and SEARCH_MAX_LIMIT")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", catalog.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// getEnv returns the environment variable or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
