package maintenance

import (
	"context"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
)

// Repository enumerates the corpus and rewrites embeddings.
type Repository interface {
	List(ctx context.Context, cols ...db.Column) ([]domdoc.Document, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
