package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"embed-service/internal/config"
	"embed-service/internal/embeddings"
	"embed-service/internal/logger"
	"embed-service/internal/metrics"
)

// Deps bundles the runtime dependencies shared by every handler. Model is
// loaded once in Build and only read afterwards.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Metrics    metrics.Metrics
	Model      *embeddings.Model
	InstanceID string
}

// Build loads env, config, and the embedding model. It fails if the model
// cannot be loaded.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return Deps{}, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel)
	return BuildWith(ctx, cfg, log)
}

// BuildWith assembles Deps from an already loaded configuration.
func BuildWith(ctx context.Context, cfg config.Config, log *slog.Logger) (Deps, error) {
	instanceID := uuid.NewString()
	log = log.With("instance_id", instanceID)
	m := metrics.NewMetrics(metrics.InstanceInfo{InstanceID: instanceID})

	backend, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	model, err := embeddings.Load(ctx, backend, embeddings.LoadOptions{
		Name:       cfg.Model,
		Provider:   cfg.Provider,
		Dimensions: cfg.Dimensions,
		Attempts:   cfg.ModelLoadAttempts,
		Backoff:    cfg.ModelLoadBackoff,
		Log:        log,
		Metrics:    m,
	})
	if err != nil {
		return Deps{}, fmt.Errorf("failed to load model: %w", err)
	}
	return Deps{
		Config:     cfg,
		Log:        log,
		Metrics:    m,
		Model:      model,
		InstanceID: instanceID,
	}, nil
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderHuggingFace:
		token := cfg.HuggingFaceToken()
		if token == "" {
			log.Warn("no Hugging Face token set; public inference rate limits apply")
		}
		embedder, err := embeddings.NewHuggingFaceEmbedder(token, cfg.Model, cfg.BaseURL, cfg.EmbeddingTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Hugging Face embedder: %w", err)
		}
		log.Info("using Hugging Face embedder", "model", cfg.Model, "endpoint", cfg.BaseURL)
		return embedder, nil
	case config.ProviderOpenAI:
		embedder, err := embeddings.NewOpenAIEmbedder(embeddings.OpenAIOptions{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.EmbeddingTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI-compatible embedder: %w", err)
		}
		log.Info("using OpenAI-compatible embedder", "model", cfg.Model, "base_url", cfg.BaseURL)
		return embedder, nil
	default:
		return nil, fmt.Errorf("%w: %s (valid options: huggingface, openai)", config.ErrInvalidProvider, cfg.Provider)
	}
}
