package db

import (
	"context"
	"fmt"
	"time"
)

// Store is the document store facade every driver implements.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces
type Store interface {
	Pinger
	DocumentWriter
	DocumentReader
	SimilaritySearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentWriter persists documents. Both writes replace the whole embedding.
type DocumentWriter interface {
	// Insert stores a new document and returns the store-assigned id.
	Insert(ctx context.Context, content string, embedding []float32) (string, error)
	// UpdateEmbedding overwrites the embedding of an existing document. Content is never touched.
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// DocumentReader enumerates the corpus.
type DocumentReader interface {
	// SelectAll returns every document in a stable order, populating only the requested columns.
	// ID is always populated.
	SelectAll(ctx context.Context, cols ...Column) ([]Record, error)
}

// SimilaritySearcher runs the store's similarity operator.
type SimilaritySearcher interface {
	// SimilaritySearch returns at most q.Limit rows with score > q.Threshold, best first.
	// A store without the operator returns ErrOperatorNotFound.
	SimilaritySearch(ctx context.Context, q *SimilarityQuery) ([]SimilarityRow, error)
}

// KVStore provides simple key-value operations (embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// WaitForReady polls p.Ping until the store responds or timeout expires.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := p.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
