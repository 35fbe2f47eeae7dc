package ingest

import (
	"context"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
)

// Repository defines the storage contract for ingestion.
type Repository interface {
	Create(ctx context.Context, doc *domdoc.Document) (string, error)
	// List is used for deduplication only.
	List(ctx context.Context, cols ...db.Column) ([]domdoc.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
