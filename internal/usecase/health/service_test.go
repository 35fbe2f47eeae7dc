package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type slowPinger struct{}

func (slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	r := New(&mockStorePinger{}, &mockEmbeddingChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["store"].Result != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks["store"].Result)
	}
	if r.Checks["embedding"].Result != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"].Result)
	}
}

func TestCheck_StoreDown(t *testing.T) {
	r := New(&mockStorePinger{err: errors.New("refused")}, &mockEmbeddingChecker{}).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["store"].Result != CheckError {
		t.Errorf("expected store %q, got %q", CheckError, r.Checks["store"].Result)
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	r := New(&mockStorePinger{}, &mockEmbeddingChecker{err: domain.ErrRateLimited}).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"].Kind != domain.KindRateLimited {
		t.Errorf("expected kind %q, got %q", domain.KindRateLimited, r.Checks["embedding"].Kind)
	}
}

func TestCheck_NilEmbedding(t *testing.T) {
	r := New(&mockStorePinger{}, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when checker is nil")
	}
}

func TestCheck_Timeout(t *testing.T) {
	r := New(slowPinger{}, nil).WithTimeout(20 * time.Millisecond).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["store"].Kind != domain.KindTimeout {
		t.Errorf("expected kind %q, got %q", domain.KindTimeout, r.Checks["store"].Kind)
	}
}
