package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/go-huggingface"
)

// featureExtractFunc is the single inference call the embedder needs from the
// Hugging Face client.
type featureExtractFunc func(ctx context.Context, req *huggingface.FeatureExtractionRequest) ([][]float32, error)

// HuggingFaceEmbedder runs feature extraction for one sentence-transformers
// model through the Hugging Face Inference API.
type HuggingFaceEmbedder struct {
	model   string
	timeout time.Duration
	extract featureExtractFunc
}

// NewHuggingFaceEmbedder binds the client to modelID. An empty token works for
// public models at a lower rate limit. A non-empty endpoint replaces the
// hosted Inference API, e.g. a private Inference Endpoint or a local TEI server.
func NewHuggingFaceEmbedder(token, modelID, endpoint string, timeout time.Duration) (*HuggingFaceEmbedder, error) {
	if modelID == "" {
		return nil, fmt.Errorf("model id required")
	}
	client := huggingface.NewInferenceClient(token, func(o *huggingface.InferenceClientOptions) {
		if endpoint != "" {
			o.InferenceEndpoint = strings.TrimRight(endpoint, "/")
		}
	})
	client.SetModel(modelID)

	return newHuggingFaceEmbedder(modelID, timeout, func(ctx context.Context, req *huggingface.FeatureExtractionRequest) ([][]float32, error) {
		resp, err := client.FeatureExtractionWithAutomaticReduction(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}), nil
}

func newHuggingFaceEmbedder(modelID string, timeout time.Duration, extract featureExtractFunc) *HuggingFaceEmbedder {
	if timeout <= 0 {
		timeout = defaultEmbeddingTimeout
	}
	return &HuggingFaceEmbedder{model: modelID, timeout: timeout, extract: extract}
}

// Embed returns the pooled sentence embedding for text.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.extract(reqCtx, &huggingface.FeatureExtractionRequest{
		Inputs: []string{text},
		Options: huggingface.Options{
			WaitForModel: huggingface.PTR(true),
			UseCache:     huggingface.PTR(true),
		},
	})
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("authentication failed for model %s (set HF_TOKEN): %w", e.model, err)
		}
		return nil, fmt.Errorf("feature extraction for model %s: %w", e.model, err)
	}
	if len(resp) == 0 || len(resp[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return Vector(resp[0]), nil
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid username or password") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication")
}
