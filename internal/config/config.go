package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"

	DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"
)

var ErrInvalidProvider = errors.New("invalid embedding provider")

// Config holds runtime configuration. Every field has a usable default.
type Config struct {
	// Server
	Port            int           `env:"PORT" envDefault:"8000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"` // 1MiB
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Model
	Provider          string        `env:"EMBEDDING_PROVIDER" envDefault:"huggingface"` // "huggingface" or "openai" (any OpenAI-compatible server, e.g. TEI)
	Model             string        `env:"EMBEDDING_MODEL" envDefault:"sentence-transformers/all-MiniLM-L6-v2"`
	Dimensions        int           `env:"EMBEDDING_DIMENSIONS" envDefault:"0"` // 0 accepts whatever the probe reports
	BaseURL           string        `env:"EMBEDDING_BASE_URL"` // OpenAI base URL, or the HF inference endpoint
	EmbeddingTimeout  time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
	ModelLoadAttempts int           `env:"MODEL_LOAD_ATTEMPTS" envDefault:"5"`
	ModelLoadBackoff  time.Duration `env:"MODEL_LOAD_BACKOFF" envDefault:"1s"`

	// Credentials
	HFToken       string `env:"HF_TOKEN"`
	HFHubAPIToken string `env:"HUGGINGFACEHUB_API_TOKEN"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// HuggingFaceToken prefers HF_TOKEN and falls back to HUGGINGFACEHUB_API_TOKEN.
func (c Config) HuggingFaceToken() string {
	if c.HFToken != "" {
		return c.HFToken
	}
	return c.HFHubAPIToken
}

// Validate checks the settings that cannot be defaulted away.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderHuggingFace:
	case ProviderOpenAI:
		if c.OpenAIKey == "" && c.BaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY or EMBEDDING_BASE_URL is required when EMBEDDING_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("%w: %q (valid options: huggingface, openai)", ErrInvalidProvider, c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL must not be empty")
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must not be negative, got %d", c.Dimensions)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	// A backend call that outlives the request deadline is abandoned before
	// it can fail on its own terms.
	if c.EmbeddingTimeout > 0 && c.RequestTimeout > 0 && c.EmbeddingTimeout >= c.RequestTimeout {
		return fmt.Errorf("EMBEDDING_TIMEOUT (%s) must be shorter than REQUEST_TIMEOUT (%s)", c.EmbeddingTimeout, c.RequestTimeout)
	}
	return nil
}
