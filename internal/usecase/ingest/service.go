package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
)

// StoreResult is the outcome of storing one document.
type StoreResult struct {
	Success   bool
	StoredID  string
	Duplicate bool
	Err       error
}

// Kind classifies Err for reporting.
func (r StoreResult) Kind() domain.Kind { return domain.KindOf(r.Err) }

// Options tune the pipeline.
type Options struct {
	// Deduplicate returns the id of an existing document with identical content instead of inserting.
	Deduplicate bool
}

// Service embeds and stores documents.
type Service struct {
	repo   Repository
	embed  Embedder
	opts   Options
	logger *zap.Logger
}

// New creates an ingestion service.
func New(repo Repository, embed Embedder, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, opts: opts, logger: logger}
}

// Ingest validates, embeds and inserts a single document.
// Invalid content and embedding failures are returned as errors; store failures
// are reported inside the result with Success=false.
func (s *Service) Ingest(ctx context.Context, content string) (StoreResult, error) {
	if err := domdoc.ValidateContent(content); err != nil {
		return StoreResult{}, err
	}

	var existing map[string]string
	if s.opts.Deduplicate {
		var err error
		if existing, err = s.loadContents(ctx); err != nil {
			return StoreResult{Err: err}, nil
		}
	}
	return s.ingest(ctx, content, existing)
}

// IngestMany stores every item independently and never aborts early.
// Results are in input order; item errors are carried in StoreResult.Err.
func (s *Service) IngestMany(ctx context.Context, contents []string) []StoreResult {
	results := make([]StoreResult, len(contents))

	var existing map[string]string
	if s.opts.Deduplicate {
		var err error
		if existing, err = s.loadContents(ctx); err != nil {
			for i := range results {
				results[i] = StoreResult{Err: err}
			}
			return results
		}
	}

	failed := 0
	for i, content := range contents {
		res, err := s.ingest(ctx, content, existing)
		if err != nil {
			res = StoreResult{Err: err}
		}
		if !res.Success {
			failed++
		}
		results[i] = res
	}

	s.logger.Info("Batch ingest completed",
		zap.Int("total", len(contents)),
		zap.Int("succeeded", len(contents)-failed),
		zap.Int("failed", failed),
	)
	return results
}

func (s *Service) ingest(ctx context.Context, content string, existing map[string]string) (StoreResult, error) {
	if err := domdoc.ValidateContent(content); err != nil {
		return StoreResult{}, err
	}

	if id, ok := existing[content]; ok {
		return StoreResult{Success: true, StoredID: id, Duplicate: true}, nil
	}

	embResult, err := s.embed.Embed(ctx, content)
	if err != nil {
		return StoreResult{}, fmt.Errorf("vectorize content: %w", err)
	}

	doc, err := domdoc.New(content, embResult.Embedding)
	if err != nil {
		return StoreResult{}, err
	}

	id, err := s.repo.Create(ctx, &doc)
	if err != nil {
		s.logger.Warn("Document insert failed", zap.Error(err))
		return StoreResult{Err: err}, nil
	}

	if existing != nil {
		existing[content] = id
	}
	return StoreResult{Success: true, StoredID: id}, nil
}

// loadContents maps stored content to its first id.
func (s *Service) loadContents(ctx context.Context) (map[string]string, error) {
	docs, err := s.repo.List(ctx, db.ColumnContent)
	if err != nil {
		return nil, fmt.Errorf("load existing content: %w", err)
	}
	m := make(map[string]string, len(docs))
	for _, d := range docs {
		if _, ok := m[d.Content()]; !ok {
			m[d.Content()] = d.ID()
		}
	}
	return m, nil
}
