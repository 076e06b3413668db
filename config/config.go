// Package config loads application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Backend names accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Retrieval modes for the recommendation pipeline's candidate stage.
const (
	RetrievalSimilarity = "similarity"
	RetrievalAll        = "all"
)

// Config holds all runtime configuration.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"8080"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// StorageBackend selects the persistence implementation: memory|postgres|mongo.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`
	MongoURI       string `env:"MONGODB_URI"`

	// OpenAI
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	ChatModel      string `env:"OPENAI_CHAT_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// Qdrant vector index. When QdrantURL is empty the service falls back to
	// a static in-process card corpus.
	QdrantURL    string `env:"QDRANT_URL"`
	QdrantAPIKey string `env:"QDRANT_API_KEY"`

	// RetrievalMode picks between similarity-filtered top-K and fetch-all
	// candidate retrieval: similarity|all.
	RetrievalMode       string `env:"RETRIEVAL_MODE" envDefault:"similarity"`
	RecommendationLimit int    `env:"RECOMMENDATION_LIMIT" envDefault:"7"`

	// Identity provider token verification (POST /api/auth/sync and bearer auth).
	AuthJWTSecret string `env:"AUTH_JWT_SECRET"`
	AuthIssuer    string `env:"AUTH_ISSUER"`

	// Session cookies.
	SessionSecret string `env:"SESSION_SECRET" envDefault:"cardsavvy-dev-secret"`

	// HeaderFallback trusts X-User-Id as an identity when no session or token
	// is present. Spoofable by any caller; prototype convenience only.
	HeaderFallback bool `env:"AUTH_HEADER_FALLBACK" envDefault:"true"`

	ChatWorkers int    `env:"CHAT_WORKERS" envDefault:"4"`
	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
}

// Load parses environment variables and validates cross-field constraints.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required when STORAGE_BACKEND=mongo")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if cfg.RetrievalMode != RetrievalSimilarity && cfg.RetrievalMode != RetrievalAll {
		return nil, fmt.Errorf("unknown RETRIEVAL_MODE %q", cfg.RetrievalMode)
	}

	if cfg.RecommendationLimit <= 0 {
		cfg.RecommendationLimit = 7
	}
	if cfg.ChatWorkers <= 0 {
		cfg.ChatWorkers = 4
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
