package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"embed-service/internal/metrics"
	"embed-service/internal/retry"
)

// probeText is embedded once at load time to prove the model answers and to
// learn its dimensionality.
const probeText = "Hello world"

// LoadOptions controls Load.
type LoadOptions struct {
	Name       string
	Provider   string
	Dimensions int // expected dimensionality; 0 accepts the probe
	Attempts   int
	Backoff    time.Duration
	Log        *slog.Logger
	Metrics    metrics.Metrics
}

// Model is the process-wide embedding model. It is built once by Load and is
// read-only afterwards, so one *Model serves every request concurrently.
type Model struct {
	name       string
	provider   string
	dimensions int
	backend    Embedder
	metrics    metrics.Metrics
}

// Load probes backend until it produces an embedding, retrying with exponential
// backoff while a hosted model warms up. A returned error means the model is
// unavailable and the service must not start.
func Load(ctx context.Context, backend Embedder, opts LoadOptions) (*Model, error) {
	if backend == nil {
		return nil, fmt.Errorf("nil embedding backend")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	log = log.With("model", opts.Name, "provider", opts.Provider)
	log.Info("loading embedding model")

	var probe Vector
	err := retry.Do(ctx, opts.Attempts, opts.Backoff, func(ctx context.Context) error {
		vec, err := backend.Embed(ctx, probeText)
		if err != nil {
			return err
		}
		if len(vec) == 0 {
			return ErrEmptyEmbedding
		}
		probe = vec
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		log.Warn("model probe failed; retrying", "attempt", attempt, "wait", wait, "err", err)
	})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", opts.Name, err)
	}

	if opts.Dimensions > 0 && len(probe) != opts.Dimensions {
		return nil, fmt.Errorf("load model %s: %w: expected %d, got %d", opts.Name, ErrDimensionMismatch, opts.Dimensions, len(probe))
	}

	m.SetModelInfo(opts.Name, opts.Provider, len(probe))
	log.Info("embedding model loaded", "dimensions", len(probe))

	return &Model{
		name:       opts.Name,
		provider:   opts.Provider,
		dimensions: len(probe),
		backend:    backend,
		metrics:    m,
	}, nil
}

// Name returns the pretrained model identifier.
func (m *Model) Name() string { return m.name }

// Provider returns the backend kind serving the model.
func (m *Model) Provider() string { return m.provider }

// Dimensions returns the embedding length observed at load time.
func (m *Model) Dimensions() int { return m.dimensions }

// Embed runs one inference call. Errors are returned as-is; nothing is retried.
func (m *Model) Embed(ctx context.Context, text string) (Vector, error) {
	start := time.Now()
	vec, err := m.backend.Embed(ctx, text)
	m.metrics.ObserveInference(time.Since(start).Seconds(), err != nil)
	return vec, err
}
