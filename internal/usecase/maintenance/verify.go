package maintenance

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/domain/vector"
)

const (
	previewRunes   = 100
	headComponents = 5
)

// Sample is a diagnostic view of one document.
type Sample struct {
	ID        string
	Preview   string
	Dimension int
	Head      []float32
}

// VerifyReport summarizes embedding lengths across the corpus.
type VerifyReport struct {
	Total int
	// Lengths counts documents per embedding length; 0 means no embedding.
	Lengths map[int]int
	// Missing lists documents with no embedding.
	Missing []string
	// Mismatched lists documents whose embedding length is not CanonicalDimension.
	Mismatched []string
	Samples    []Sample
	// Healthy reports that every document has a CanonicalDimension embedding.
	Healthy bool
}

// Verify reads the whole corpus and reports embedding dimensional integrity. Read-only.
func (s *Service) Verify(ctx context.Context) (VerifyReport, error) {
	docs, err := s.repo.List(ctx, db.AllColumns...)
	if err != nil {
		return VerifyReport{}, fmt.Errorf("verify: %w", err)
	}

	report := VerifyReport{
		Total:   len(docs),
		Lengths: make(map[int]int),
	}
	for i := range docs {
		d := &docs[i]
		dim := d.Dimension()
		report.Lengths[dim]++

		switch {
		case !d.HasEmbedding():
			report.Missing = append(report.Missing, d.ID())
		case dim != domain.CanonicalDimension:
			report.Mismatched = append(report.Mismatched, d.ID())
		}

		if len(report.Samples) < s.opts.SampleSize {
			report.Samples = append(report.Samples, Sample{
				ID:        d.ID(),
				Preview:   preview(d.Content()),
				Dimension: dim,
				Head:      vector.Head(d.Embedding(), headComponents),
			})
		}
	}
	report.Healthy = len(report.Missing) == 0 && len(report.Mismatched) == 0

	s.logger.Info("Verify completed",
		zap.Int("total", report.Total),
		zap.Int("missing", len(report.Missing)),
		zap.Int("mismatched", len(report.Mismatched)),
		zap.Bool("healthy", report.Healthy),
	)
	return report, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes]) + "..."
}
