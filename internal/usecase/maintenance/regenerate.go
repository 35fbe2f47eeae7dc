package maintenance

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
)

// Regenerate re-embeds every document's content and replaces its embedding.
// Content is never written. Per-document failures are recorded and processing continues;
// only a failure to enumerate the corpus is returned as an error.
func (s *Service) Regenerate(ctx context.Context, opts ...RunOption) (*batch.Report, error) {
	if s.embed == nil {
		return nil, fmt.Errorf("%w: regenerate requires an embedder", domain.ErrConfiguration)
	}
	docs, err := s.repo.List(ctx, db.AllColumns...)
	if err != nil {
		return nil, fmt.Errorf("regenerate: %w", err)
	}
	return s.process(domain.WithFreshEmbeddings(ctx), OpRegenerate, docs, s.regenerateOne, opts), nil
}

func (s *Service) regenerateOne(ctx context.Context, doc *domdoc.Document) batch.Result {
	from := doc.Dimension()

	embResult, err := s.embed.Embed(ctx, doc.Content())
	if err != nil {
		return batch.NewError(doc.ID(), fmt.Errorf("vectorize: %w", err))
	}
	// the embedder already enforces the dimension; keep the store safe from other implementations
	if err := domain.CheckDimension(embResult.Embedding); err != nil {
		return batch.NewError(doc.ID(), err)
	}

	if err := s.repo.UpdateEmbedding(ctx, doc.ID(), embResult.Embedding); err != nil {
		return batch.NewError(doc.ID(), err)
	}
	return batch.NewOK(doc.ID(), from, len(embResult.Embedding))
}
