package embeddings

import (
	"context"
	"errors"
	"math"
)

var (
	ErrEmptyEmbedding    = errors.New("model returned an empty embedding")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Finite reports whether every component is a finite number.
func (v Vector) Finite() bool {
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Embedder defines the embedding interface.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
}
