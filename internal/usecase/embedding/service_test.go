package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	delay  time.Duration
	calls  int
	last   string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.last = text
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.EmbeddingResult{}, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.result, m.err
}

type healthyEmbedder struct {
	mockEmbedder
	healthErr error
}

func (h *healthyEmbedder) HealthCheck(_ context.Context) error { return h.healthErr }

func canonical() []float32 { return make([]float32, domain.CanonicalDimension) }

func newService(inner domain.Embedder) *Service {
	return New(inner, Config{Provider: "test", APIKey: "key"}, zap.NewNop())
}

func TestEmbed_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: canonical(), TotalTokens: 4}}
	svc := newService(inner)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	res, err := svc.Embed(ctx, "  the quick brown fox  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != domain.CanonicalDimension {
		t.Errorf("expected %d dimensions, got %d", domain.CanonicalDimension, len(res.Embedding))
	}
	if inner.last != "the quick brown fox" {
		t.Errorf("expected trimmed text, got %q", inner.last)
	}
	if usage.TotalTokens() != 4 || usage.Calls() != 1 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestEmbed_BlankTextMakesNoCall(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		inner := &mockEmbedder{}
		_, err := newService(inner).Embed(context.Background(), text)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%q: expected ErrInvalidInput, got %v", text, err)
		}
		if inner.calls != 0 {
			t.Errorf("%q: expected no provider call, got %d", text, inner.calls)
		}
	}
}

func TestEmbed_MissingKeyMakesNoCall(t *testing.T) {
	inner := &mockEmbedder{}
	svc := New(inner, Config{}, nil)

	_, err := svc.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if inner.calls != 0 {
		t.Errorf("expected no provider call, got %d", inner.calls)
	}
}

func TestEmbed_NilProvider(t *testing.T) {
	_, err := New(nil, Config{APIKey: "key"}, nil).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestEmbed_WrongDimension(t *testing.T) {
	for _, n := range []int{0, 3, domain.CanonicalDimension + 1, 3072} {
		inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: make([]float32, n)}}
		_, err := newService(inner).Embed(context.Background(), "hello")
		if !errors.Is(err, domain.ErrDimensionMismatch) {
			t.Fatalf("len %d: expected ErrDimensionMismatch, got %v", n, err)
		}
		var dm *domain.DimensionMismatchError
		if !errors.As(err, &dm) || dm.Got != n || dm.Want != domain.CanonicalDimension {
			t.Errorf("len %d: unexpected mismatch detail: %v", n, err)
		}
	}
}

func TestEmbed_RejectionsAreCounted(t *testing.T) {
	count := func(reason string) float64 {
		return testutil.ToFloat64(metrics.EmbeddingRejectionsTotal.WithLabelValues("test", reason))
	}
	blank, dim := count("empty_text"), count("dimension_mismatch")

	svc := newService(&mockEmbedder{result: domain.EmbeddingResult{Embedding: make([]float32, 3)}})
	_, _ = svc.Embed(context.Background(), " ")
	_, _ = svc.Embed(context.Background(), "hello")

	if got := count("empty_text") - blank; got != 1 {
		t.Errorf("empty_text delta = %f, want 1", got)
	}
	if got := count("dimension_mismatch") - dim; got != 1 {
		t.Errorf("dimension_mismatch delta = %f, want 1", got)
	}
}

func TestEmbed_ProviderError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrRateLimited}
	_, err := newService(inner).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestEmbed_TimeoutIsClassified(t *testing.T) {
	inner := &mockEmbedder{delay: time.Second}
	svc := New(inner, Config{APIKey: "key", Timeout: 20 * time.Millisecond}, zap.NewNop())

	_, err := svc.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("timeout should be retryable")
	}
}

func TestHealthCheck(t *testing.T) {
	if err := newService(&mockEmbedder{}).HealthCheck(context.Background()); err != nil {
		t.Errorf("provider without health check should pass: %v", err)
	}

	boom := errors.New("down")
	err := newService(&healthyEmbedder{healthErr: boom}).HealthCheck(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}
