package domain

import (
	"context"
	"strings"
)

// CanonicalDimension is the embedding length every stored document and query must have.
const CanonicalDimension = 1536

// DefaultEmbeddingModel is the model pinned for both corpus and query embeddings.
const DefaultEmbeddingModel = "text-embedding-3-small"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// IsBlank reports whether text is empty after trimming whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// CheckDimension returns a DimensionMismatchError unless len(vec) == CanonicalDimension.
func CheckDimension(vec []float32) error {
	if len(vec) != CanonicalDimension {
		return NewDimensionMismatch(len(vec), CanonicalDimension)
	}
	return nil
}

type freshEmbeddingKey struct{}

// WithFreshEmbeddings marks ctx so caching layers recompute vectors from the provider
// instead of serving stored ones. Regeneration runs under this mark.
func WithFreshEmbeddings(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshEmbeddingKey{}, true)
}

// FreshEmbeddings reports whether ctx was marked by WithFreshEmbeddings.
func FreshEmbeddings(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshEmbeddingKey{}).(bool)
	return fresh
}
