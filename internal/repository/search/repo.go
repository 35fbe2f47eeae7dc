package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain/search/match"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SimilaritySearch(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityRow, error)
}

// Repo implements usecase/search.Repository over a store's similarity operator.
type Repo struct {
	store  store
	driver string
}

// New creates a search repository. driver labels store metrics.
func New(s store, driver string) *Repo {
	return &Repo{store: s, driver: driver}
}

// Similar runs the similarity operator and returns rows in store order.
// Store output is passed through unchanged so callers can check its contract.
func (r *Repo) Similar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]match.Match, error) {
	start := time.Now()
	rows, err := r.store.SimilaritySearch(ctx, &db.SimilarityQuery{
		Embedding: embedding,
		Threshold: threshold,
		Limit:     limit,
	})
	metrics.ObserveStore(r.driver, db.OpMatch, start, err)
	if err != nil {
		return nil, db.ToDomain("similarity search", err)
	}

	matches := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, match.New(row.ID, row.Content, row.Score))
	}
	return matches, nil
}
