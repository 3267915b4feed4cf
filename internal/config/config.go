package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration, parsed from environment
// variables at startup and passed explicitly to everything that needs
// it. Nothing reads ambient globals.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`

	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	ModelName       string `env:"MODEL_NAME" envDefault:"claude-3-5-sonnet-latest"`
	OllamaURL       string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	EmbeddingModel  string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`

	// Turn engine tuning.
	RecentWindowSize  int           `env:"RECENT_WINDOW_SIZE" envDefault:"10"`
	RetrievalLimit    int           `env:"RETRIEVAL_LIMIT" envDefault:"5"`
	DistanceThreshold float64       `env:"DISTANCE_THRESHOLD" envDefault:"0.3"`
	LockTTL           time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	LockWaitTimeout   time.Duration `env:"LOCK_WAIT_TIMEOUT" envDefault:"5s"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"600s"`

	// Illustration generation.
	ImageGenerationEnabled  bool `env:"IMAGE_GENERATION_ENABLED" envDefault:"false"`
	ImageGenerationInterval int  `env:"IMAGE_GENERATION_INTERVAL" envDefault:"3"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
