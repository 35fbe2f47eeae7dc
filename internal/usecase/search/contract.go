package search

import (
	"context"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
	"github.com/kailas-cloud/corpusdex/internal/domain/search/match"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Similar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]match.Match, error)
}

// CorpusLister enumerates documents; used only for debug-level corpus size logging.
type CorpusLister interface {
	List(ctx context.Context, cols ...db.Column) ([]domdoc.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
