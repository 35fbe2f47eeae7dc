package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
)

// DefaultCallTimeout bounds a single provider call when Config.Timeout is zero.
const DefaultCallTimeout = 30 * time.Second

// Config configures the guarded embedder.
type Config struct {
	Provider string
	Model    string
	// APIKey is checked for presence only; the provider owns the secret.
	APIKey  string
	Timeout time.Duration
}

// Service wraps a provider with input validation, a per-call timeout,
// dimension checks and usage accounting.
// Transport metrics (requests, duration, tokens) are recorded by the provider.
type Service struct {
	inner  domain.Embedder
	cfg    Config
	logger *zap.Logger
}

// New wraps inner. A nil logger is replaced with a no-op logger.
func New(inner domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultEmbeddingModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inner: inner, cfg: cfg, logger: logger}
}

// Embed returns a CanonicalDimension-length vector for text.
// Blank text and missing credentials fail before the provider is called.
func (s *Service) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.reject("empty_text")
		return domain.EmbeddingResult{}, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	if s.inner == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: no embedding provider", domain.ErrConfiguration)
	}
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		s.reject("missing_api_key")
		return domain.EmbeddingResult{}, fmt.Errorf("%w: missing embedding api key", domain.ErrConfiguration)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := s.inner.Embed(callCtx, text)
	duration := time.Since(start)

	if err != nil {
		err = domain.ClassifyDeadline(err)
		s.logger.Error("Embedding request failed",
			zap.String("provider", s.cfg.Provider),
			zap.String("model", s.cfg.Model),
			zap.Duration("duration", duration),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if err := domain.CheckDimension(result.Embedding); err != nil {
		s.reject("dimension_mismatch")
		s.logger.Warn("Embedding has unexpected dimension",
			zap.String("model", s.cfg.Model),
			zap.Int("dimensions", len(result.Embedding)),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	s.logger.Debug("Embedding request completed",
		zap.String("provider", s.cfg.Provider),
		zap.String("model", s.cfg.Model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func (s *Service) reject(reason string) {
	metrics.EmbeddingRejectionsTotal.WithLabelValues(s.cfg.Provider, reason).Inc()
}

// HealthCheck delegates to the provider when it supports health checks.
func (s *Service) HealthCheck(ctx context.Context) error {
	hc, ok := s.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health: %w", domain.ClassifyDeadline(err))
	}
	return nil
}
