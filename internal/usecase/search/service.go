package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/domain/search/match"
	"github.com/kailas-cloud/corpusdex/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
)

// Response is the ordered, threshold-filtered list of matches. Best first.
type Response struct {
	Matches []match.Match
}

// Service runs similarity search over the corpus.
type Service struct {
	repo   Repository
	embed  Embedder
	creds  domain.Credentials
	corpus CorpusLister
	logger *zap.Logger
}

// New creates a search service. corpus may be nil.
func New(repo Repository, embed Embedder, creds domain.Credentials, corpus CorpusLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, creds: creds, corpus: corpus, logger: logger}
}

// Search embeds the query and asks the store for matches above the threshold.
// Store output that breaks the similarity contract is reported, not corrected.
func (s *Service) Search(ctx context.Context, req *request.Request) (Response, error) {
	if req == nil || req.Query() == "" {
		return Response{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if err := s.creds.Validate(); err != nil {
		return Response{}, err
	}

	s.logCorpusSize(ctx)

	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return Response{}, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := s.repo.Similar(ctx, embResult.Embedding, req.Threshold(), req.Limit())
	if err != nil {
		return Response{}, fmt.Errorf("search: %w", err)
	}

	if err := checkContract(matches, req.Threshold(), req.Limit()); err != nil {
		s.logger.Error("Similarity operator broke its contract",
			zap.Float64("threshold", req.Threshold()),
			zap.Int("limit", req.Limit()),
			zap.Int("rows", len(matches)),
			zap.Error(err),
		)
		return Response{}, err
	}

	metrics.SearchMatchesReturned.Observe(float64(len(matches)))
	return Response{Matches: matches}, nil
}

func (s *Service) logCorpusSize(ctx context.Context) {
	if s.corpus == nil || !s.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	docs, err := s.corpus.List(ctx, db.ColumnID)
	if err != nil {
		s.logger.Debug("Corpus size unavailable", zap.Error(err))
		return
	}
	s.logger.Debug("Searching corpus", zap.Int("documents", len(docs)))
}

// checkContract verifies the store honored limit, exclusive threshold and descending order.
func checkContract(matches []match.Match, threshold float64, limit int) error {
	if len(matches) > limit {
		return fmt.Errorf("%w: %d rows for limit %d", domain.ErrStoreContractViolation, len(matches), limit)
	}
	for i := range matches {
		score := matches[i].Score()
		if score <= threshold {
			return fmt.Errorf("%w: row %d score %.4f not above threshold %.4f",
				domain.ErrStoreContractViolation, i, score, threshold)
		}
		if i > 0 && score > matches[i-1].Score() {
			return fmt.Errorf("%w: row %d score %.4f ranked below %.4f",
				domain.ErrStoreContractViolation, i, score, matches[i-1].Score())
		}
	}
	return nil
}
