package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/domain"
	dombatch "github.com/kailas-cloud/corpusdex/internal/domain/batch"
	"github.com/kailas-cloud/corpusdex/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
	healthuc "github.com/kailas-cloud/corpusdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/corpusdex/internal/usecase/ingest"
	maintenanceuc "github.com/kailas-cloud/corpusdex/internal/usecase/maintenance"
	searchuc "github.com/kailas-cloud/corpusdex/internal/usecase/search"
)

// DefaultMaxBatchSize caps POST /documents/batch.
const DefaultMaxBatchSize = 100

// Options tune request handling.
type Options struct {
	MaxBatchSize     int
	DefaultThreshold float64
	DefaultLimit     int
}

// Server holds the HTTP handlers.
type Server struct {
	ingest      *ingestuc.Service
	search      *searchuc.Service
	maintenance *maintenanceuc.Service
	health      *healthuc.Service
	opts        Options
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	search *searchuc.Service,
	maintenance *maintenanceuc.Service,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.DefaultThreshold == 0 {
		opts.DefaultThreshold = request.DefaultThreshold
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = request.DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ingest:      ingest,
		search:      search,
		maintenance: maintenance,
		health:      health,
		opts:        opts,
		logger:      logger,
	}
}

// CreateDocument handles POST /documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.ingest.Ingest(ctx, req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !res.Success {
		s.handleDomainError(w, r, res.Err)
		return
	}

	setEmbeddingHeaders(w, usage)
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, DocumentResponse{ID: res.StoredID, Duplicate: res.Duplicate})
}

// BatchCreateDocuments handles POST /documents/batch.
func (s *Server) BatchCreateDocuments(w http.ResponseWriter, r *http.Request) {
	var req BatchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Items) == 0 || len(req.Items) > s.opts.MaxBatchSize {
		writeError(w, http.StatusBadRequest, domain.KindInvalidInput,
			fmt.Sprintf("items count must be between 1 and %d", s.opts.MaxBatchSize))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results := s.ingest.IngestMany(ctx, req.Items)

	resp := BatchCreateResponse{Items: make([]BatchCreateItem, len(results))}
	for i, res := range results {
		resp.Items[i] = BatchCreateItem{
			Index:     i,
			Success:   res.Success,
			ID:        res.StoredID,
			Duplicate: res.Duplicate,
			Error:     itemError(res.Err),
		}
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, resp)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	threshold, limit := s.opts.DefaultThreshold, s.opts.DefaultLimit
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if req.Limit != nil {
		limit = *req.Limit
	}

	searchReq, err := request.New(req.Query, request.WithThreshold(threshold), request.WithLimit(limit))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]MatchItem, len(resp.Matches))
	for i := range resp.Matches {
		m := &resp.Matches[i]
		items[i] = MatchItem{ID: m.ID(), Content: m.Content(), SimilarityScore: m.Score()}
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Matches:   items,
		Total:     len(items),
		Threshold: searchReq.Threshold(),
		Limit:     searchReq.Limit(),
	})
}

// Verify handles GET /maintenance/verify.
func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	report, err := s.maintenance.Verify(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	lengths := make(map[string]int, len(report.Lengths))
	for dim, n := range report.Lengths {
		lengths[strconv.Itoa(dim)] = n
	}
	samples := make([]SampleItem, len(report.Samples))
	for i, smp := range report.Samples {
		samples[i] = SampleItem{ID: smp.ID, Preview: smp.Preview, Dimension: smp.Dimension, Head: smp.Head}
	}

	writeJSON(w, http.StatusOK, VerifyResponse{
		Total:      report.Total,
		Lengths:    lengths,
		Missing:    nonNil(report.Missing),
		Mismatched: nonNil(report.Mismatched),
		Samples:    samples,
		Healthy:    report.Healthy,
		Expected:   domain.CanonicalDimension,
	})
}

// Regenerate handles POST /maintenance/regenerate.
func (s *Server) Regenerate(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.maintenance.Regenerate(ctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// Truncate handles POST /maintenance/truncate.
func (s *Server) Truncate(w http.ResponseWriter, r *http.Request) {
	report, err := s.maintenance.Truncate(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v.Result)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Calls() > 0 {
		w.Header().Set(metrics.EmbeddingTokensHeader, strconv.Itoa(usage.TotalTokens()))
	}
}

func reportToResponse(r *dombatch.Report) ReportResponse {
	items := make([]ReportItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = ReportItem{
			ID:      it.ID(),
			Status:  string(it.Status()),
			FromDim: it.FromDim(),
			ToDim:   it.ToDim(),
		}
		if it.Err() != nil {
			items[i].Code = string(it.Kind())
			items[i].Message = safeDomainMessage(it.Err())
		}
	}
	return ReportResponse{
		Operation:  r.Operation,
		Total:      r.Total(),
		Succeeded:  r.Succeeded(),
		Failed:     r.Failed(),
		Skipped:    r.Skipped(),
		DurationMS: r.Duration().Milliseconds(),
		Items:      items,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
