package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/search", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(EmbeddingTokensHeader, "7")
		_, _ = w.Write([]byte(`{"matches":[]}`))
	})
	r.Post("/documents", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.Get("/maintenance/verify", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	return r
}

func TestMiddleware_RecordsByRouteAndStatus(t *testing.T) {
	r := newRouter()

	tests := []struct {
		method, path, status string
	}{
		{"POST", "/search", "200"},
		{"POST", "/documents", "201"},
		{"GET", "/maintenance/verify", "502"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, http.NoBody))

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			if after-before != 1 {
				t.Errorf("requests_total delta = %f, want 1", after-before)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestMiddleware_EmbeddingTokens(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpEmbeddingTokens.WithLabelValues("/search"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/search", http.NoBody))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/documents", http.NoBody))

	if got := testutil.ToFloat64(httpEmbeddingTokens.WithLabelValues("/search")) - before; got != 7 {
		t.Errorf("tokens delta = %f, want 7", got)
	}
	if testutil.ToFloat64(httpEmbeddingTokens.WithLabelValues("/documents")) != 0 {
		t.Error("routes without the header must not count tokens")
	}
}

func TestMiddleware_UnknownRoute(t *testing.T) {
	r := newRouter()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", http.NoBody))

	if testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")) < 1 {
		t.Error("unmatched routes must be labelled unknown")
	}
}

func TestRoutePath_NoChiContext(t *testing.T) {
	if got := routePath(httptest.NewRequest("GET", "/x", http.NoBody)); got != "unknown" {
		t.Errorf("routePath = %q, want unknown", got)
	}
}

func TestNormalizePath(t *testing.T) {
	if normalizePath("") != "unknown" {
		t.Error("empty pattern must normalize to unknown")
	}
	if normalizePath("/search") != "/search" {
		t.Error("pattern must pass through")
	}
}

func TestPromhttpExposesNamespace(t *testing.T) {
	RegisterEmbeddingMetrics()
	EmbeddingCacheTotal.WithLabelValues("hit").Inc()

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if !strings.Contains(rr.Body.String(), "corpusdex_embedding_cache_total") {
		t.Error("expected corpusdex_embedding_cache_total in exposition")
	}
}
