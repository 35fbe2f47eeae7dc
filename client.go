package corpusdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/corpusdex/internal/app"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	dombatch "github.com/kailas-cloud/corpusdex/internal/domain/batch"
	"github.com/kailas-cloud/corpusdex/internal/domain/search/request"
	ingestuc "github.com/kailas-cloud/corpusdex/internal/usecase/ingest"
	maintenanceuc "github.com/kailas-cloud/corpusdex/internal/usecase/maintenance"
)

// Client is the corpusdex library entry point. Safe for concurrent use.
type Client struct {
	app *app.App
	obs *observer
}

// New creates a Client, connects to the document store and waits until it is ready.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if cc.cfg.Store.Driver == "" {
		return nil, errors.New(
			"corpusdex: document store required (use WithPostgres, WithPostgREST, WithValkey, WithBolt or WithMemory)",
		)
	}

	cfg := cc.cfg
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("corpusdex: %w: %w", domain.ErrConfiguration, err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	var appOpts []app.Option
	if cc.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: cc.embedder}))
	}
	a, err := app.New(ctx, cfg, obs.logger, appOpts...)
	if err != nil {
		return nil, fmt.Errorf("corpusdex: %w", err)
	}
	return &Client{app: a, obs: obs}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	c.app.Close()
}

// Ingest embeds content and stores it as one document.
// Failures before the store write (blank content, embedding errors) are returned as err;
// a failed write is reported in StoreResult.Err.
func (c *Client) Ingest(ctx context.Context, content string) (res StoreResult, err error) {
	defer func(start time.Time) { c.obs.observe("ingest", start, firstErr(err, res.Err)) }(time.Now())

	r, err := c.app.Ingest.Ingest(ctx, content)
	if err != nil {
		return StoreResult{}, err
	}
	return storeResultFromDomain(r), nil
}

// IngestMany stores every item independently, in order. It never aborts early.
func (c *Client) IngestMany(ctx context.Context, contents []string) []StoreResult {
	defer func(start time.Time) { c.obs.observe("ingest_many", start, nil) }(time.Now())

	results := c.app.Ingest.IngestMany(ctx, contents)
	out := make([]StoreResult, len(results))
	for i, r := range results {
		out[i] = storeResultFromDomain(r)
	}
	return out
}

// SearchOption overrides a search default.
type SearchOption func(*[]request.Option)

// Threshold sets the exclusive similarity lower bound in [0, 1). Default: 0.1.
func Threshold(t float64) SearchOption {
	return func(o *[]request.Option) { *o = append(*o, request.WithThreshold(t)) }
}

// Limit sets the maximum number of matches. Default: 5, capped at 100.
func Limit(n int) SearchOption {
	return func(o *[]request.Option) { *o = append(*o, request.WithLimit(n)) }
}

// Search returns documents whose similarity to query exceeds the threshold, best first.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (matches []Match, err error) {
	defer func(start time.Time) { c.obs.observe("search", start, err) }(time.Now())

	reqOpts := []request.Option{
		request.WithThreshold(c.app.Config.Search.DefaultThreshold),
		request.WithLimit(c.app.Config.Search.DefaultLimit),
	}
	for _, o := range opts {
		o(&reqOpts)
	}
	req, err := request.New(query, reqOpts...)
	if err != nil {
		return nil, err
	}

	resp, err := c.app.Search.Search(ctx, &req)
	if err != nil {
		return nil, err
	}
	matches = make([]Match, len(resp.Matches))
	for i := range resp.Matches {
		m := &resp.Matches[i]
		matches[i] = Match{ID: m.ID(), Content: m.Content(), Score: m.Score()}
	}
	return matches, nil
}

// Verify reports embedding dimensional integrity across the corpus. Read-only.
func (c *Client) Verify(ctx context.Context) (report VerifyReport, err error) {
	defer func(start time.Time) { c.obs.observe("verify", start, err) }(time.Now())

	r, err := c.app.Maintenance.Verify(ctx)
	if err != nil {
		return VerifyReport{}, err
	}
	samples := make([]Sample, len(r.Samples))
	for i, s := range r.Samples {
		samples[i] = Sample{ID: s.ID, Preview: s.Preview, Dimension: s.Dimension, Head: s.Head}
	}
	return VerifyReport{
		Total:      r.Total,
		Lengths:    r.Lengths,
		Missing:    r.Missing,
		Mismatched: r.Mismatched,
		Samples:    samples,
		Healthy:    r.Healthy,
	}, nil
}

// RunOption configures a Regenerate or Truncate run.
type RunOption func(*[]maintenanceuc.RunOption)

// OnProgress is called after each document with the number processed so far.
func OnProgress(fn func(done, total int)) RunOption {
	return func(o *[]maintenanceuc.RunOption) {
		*o = append(*o, maintenanceuc.WithProgress(fn))
	}
}

// Regenerate re-embeds every document from its content.
// Per-document failures are reported in the Report; err covers only the corpus read.
func (c *Client) Regenerate(ctx context.Context, opts ...RunOption) (report *Report, err error) {
	defer func(start time.Time) { c.obs.observe("regenerate", start, err) }(time.Now())

	r, err := c.app.Maintenance.Regenerate(ctx, runOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return reportFromDomain(r), nil
}

// Truncate cuts embeddings longer than Dimension down to their first Dimension components.
func (c *Client) Truncate(ctx context.Context, opts ...RunOption) (report *Report, err error) {
	defer func(start time.Time) { c.obs.observe("truncate", start, err) }(time.Now())

	r, err := c.app.Maintenance.Truncate(ctx, runOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return reportFromDomain(r), nil
}

// Health checks the document store and the embedding provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.app.Health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v.Result)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

func runOptions(opts []RunOption) []maintenanceuc.RunOption {
	var out []maintenanceuc.RunOption
	for _, o := range opts {
		o(&out)
	}
	return out
}

func storeResultFromDomain(r ingestuc.StoreResult) StoreResult {
	return StoreResult{Success: r.Success, StoredID: r.StoredID, Duplicate: r.Duplicate, Err: r.Err}
}

func reportFromDomain(r *dombatch.Report) *Report {
	out := &Report{
		Operation: r.Operation,
		Items:     make([]ItemResult, len(r.Items)),
		Succeeded: r.Succeeded(),
		Skipped:   r.Skipped(),
		Failed:    r.Failed(),
		Duration:  r.Duration(),
	}
	for i, it := range r.Items {
		out.Items[i] = ItemResult{
			ID:      it.ID(),
			Status:  ItemStatus(it.Status()),
			FromDim: it.FromDim(),
			ToDim:   it.ToDim(),
			Err:     it.Err(),
		}
	}
	return out
}

// Failures returns the failed items.
func (r *Report) Failures() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Status == ItemError {
			out = append(out, it)
		}
	}
	return out
}

// String renders a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("%s: %d ok, %d skipped, %d failed", r.Operation, r.Succeeded, r.Skipped, r.Failed)
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
