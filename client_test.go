package corpusdex

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// mockEmbedder maps known texts to fixed directions; unknown texts point along axis 2.
type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

func vec(head ...float32) []float32 {
	v := make([]float32, Dimension)
	copy(v, head)
	return v
}

func tableEmbedder(table map[string][]float32) *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		if v, ok := table[text]; ok {
			return EmbeddingResult{Embedding: v, TotalTokens: 2}, nil
		}
		return EmbeddingResult{Embedding: vec(0, 0, 1), TotalTokens: 2}, nil
	}}
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithMemory(), WithEmbedder(tableEmbedder(map[string][]float32{
		"fox":             vec(1, 0),
		"quick brown fox": vec(1, 0.2),
		"lazy dog":        vec(0, 1),
	}))}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_NoStore(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error when no store configured")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	// valkey without address fails validation before any connection attempt
	_, err := New(context.Background(), optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = "valkey"
	}))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestNew_MissingStoreCredentials(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"postgres", WithPostgres("")},
		{"postgrest url", WithPostgREST("", "anon")},
		{"postgrest key", WithPostgREST("http://localhost:3000", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opt, WithOpenAI("k"))
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if KindOf(err) != domain.KindConfiguration {
				t.Errorf("kind = %q, want %q", KindOf(err), domain.KindConfiguration)
			}
		})
	}
}

func TestNew_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Go(func() {
			c, err := New(context.Background(), WithMemory(), WithOpenAI("k"))
			if err != nil {
				errs <- err
				return
			}
			c.Close()
		})
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("New: %v", err)
	}
}

func TestClient_IngestAndSearch(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	results := c.IngestMany(ctx, []string{"quick brown fox", "lazy dog", "fox"})
	for i, r := range results {
		if !r.Success {
			t.Fatalf("item %d: %v", i, r.Err)
		}
	}

	matches, err := c.Search(ctx, "fox", Threshold(0.5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches: got %d, want 2 (%+v)", len(matches), matches)
	}
	if matches[0].Content != "fox" || matches[1].Content != "quick brown fox" {
		t.Errorf("order: %q, %q", matches[0].Content, matches[1].Content)
	}
	if matches[0].Score < matches[1].Score || matches[1].Score <= 0.5 {
		t.Errorf("scores: %v, %v", matches[0].Score, matches[1].Score)
	}

	limited, err := c.Search(ctx, "fox", Threshold(0), Limit(1))
	if err != nil || len(limited) != 1 {
		t.Errorf("limit 1: %+v %v", limited, err)
	}
}

func TestClient_IngestBlank(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.Ingest(context.Background(), " \t "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Search(context.Background(), "")
	if !errors.Is(err, ErrInvalidInput) || KindOf(err) != "invalid_input" {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestClient_Deduplication(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, WithDeduplication())

	first, err := c.Ingest(ctx, "fox")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Ingest(ctx, "fox")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Duplicate || second.StoredID != first.StoredID {
		t.Errorf("second ingest: %+v, first id %s", second, first.StoredID)
	}
}

func TestClient_EmbedderFailure(t *testing.T) {
	boom := errors.New("provider down")
	c, err := New(context.Background(), WithMemory(), WithEmbedder(&mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) { return EmbeddingResult{}, boom },
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.Ingest(context.Background(), "fox")
	if !errors.Is(err, boom) {
		t.Errorf("expected provider error to be wrapped, got %v", err)
	}
}

func TestClient_WrongDimensionEmbedder(t *testing.T) {
	c, err := New(context.Background(), WithMemory(), WithEmbedder(&mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: make([]float32, 3)}, nil
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Ingest(context.Background(), "fox"); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestClient_MaintenanceAndHealth(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, WithWorkers(2))

	c.IngestMany(ctx, []string{"fox", "lazy dog"})

	report, err := c.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.Healthy || report.Total != 2 || report.Lengths[Dimension] != 2 {
		t.Errorf("verify: %+v", report)
	}

	trunc, err := c.Truncate(ctx)
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if trunc.Skipped != 2 || trunc.Failed != 0 {
		t.Errorf("truncate: %s", trunc)
	}

	var calls int
	regen, err := c.Regenerate(ctx, OnProgress(func(done, total int) {
		calls++
		if total != 2 {
			t.Errorf("total: got %d, want 2", total)
		}
	}))
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if regen.Succeeded != 2 || len(regen.Failures()) != 0 {
		t.Errorf("regenerate: %s", regen)
	}
	if calls != 2 {
		t.Errorf("progress calls: got %d, want 2", calls)
	}
	if !strings.HasPrefix(regen.String(), "regenerate:") {
		t.Errorf("summary: %q", regen.String())
	}

	if h := c.Health(ctx); h.Status != "ok" || h.Checks["store"] != "ok" {
		t.Errorf("health: %+v", h)
	}
}

func TestClient_PrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, WithPrometheus(reg))

	_, _ = c.Search(context.Background(), "")
	if _, err := c.Ingest(context.Background(), "fox"); err != nil {
		t.Fatal(err)
	}

	n, err := testutil.GatherAndCount(reg, "corpusdex_client_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Errorf("series: got %d, want 2", n)
	}

	// a second client on the same registry reuses the collectors
	c2 := newTestClient(t, WithPrometheus(reg))
	if _, err := c2.Ingest(context.Background(), "lazy dog"); err != nil {
		t.Fatal(err)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{Embedding: []float32{1, 2, 3}, PromptTokens: 5, TotalTokens: 10}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 10 {
		t.Errorf("result: %+v", result)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrTimeout) || !IsRetryable(ErrRateLimited) {
		t.Error("timeouts and rate limits are retryable")
	}
	if IsRetryable(ErrInvalidInput) || IsRetryable(ErrOperatorNotConfigured) {
		t.Error("input and operator errors are not retryable")
	}
}
