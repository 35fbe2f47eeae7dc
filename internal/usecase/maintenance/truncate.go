package maintenance

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
	"github.com/kailas-cloud/corpusdex/internal/domain/vector"
)

// Truncate rewrites embeddings longer than CanonicalDimension to their leading
// CanonicalDimension components. Other documents are skipped, so the operation is idempotent.
func (s *Service) Truncate(ctx context.Context, opts ...RunOption) (*batch.Report, error) {
	docs, err := s.repo.List(ctx, db.ColumnID, db.ColumnEmbedding)
	if err != nil {
		return nil, fmt.Errorf("truncate: %w", err)
	}
	return s.process(ctx, OpTruncate, docs, s.truncateOne, opts), nil
}

func (s *Service) truncateOne(ctx context.Context, doc *domdoc.Document) batch.Result {
	from := doc.Dimension()
	if from <= domain.CanonicalDimension {
		return batch.NewSkipped(doc.ID(), from)
	}

	v := vector.Truncate(doc.Embedding(), domain.CanonicalDimension)
	if s.opts.Renormalize {
		v = vector.Normalize(v)
	}

	if err := s.repo.UpdateEmbedding(ctx, doc.ID(), v); err != nil {
		return batch.NewError(doc.ID(), err)
	}
	return batch.NewOK(doc.ID(), from, len(v))
}
