package maintenance

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
)

// DefaultSampleSize is the number of documents Verify samples.
const DefaultSampleSize = 5

// Operation names used in reports, logs and metrics.
const (
	OpVerify     = "verify"
	OpRegenerate = "regenerate"
	OpTruncate   = "truncate"
)

// Options tune maintenance runs.
type Options struct {
	// Workers > 1 processes documents concurrently, sharded by id.
	Workers int
	// SampleSize is the number of Verify samples (0 uses DefaultSampleSize, negative disables).
	SampleSize int
	// Renormalize L2-normalizes truncated vectors.
	Renormalize bool
}

// ProgressFunc is called after each processed document.
type ProgressFunc func(done, total int)

// RunOption configures a single Regenerate or Truncate call.
type RunOption func(*run)

type run struct {
	progress ProgressFunc
}

// WithProgress reports per-document progress.
func WithProgress(fn ProgressFunc) RunOption {
	return func(r *run) { r.progress = fn }
}

// Service verifies and repairs corpus embeddings.
type Service struct {
	repo   Repository
	embed  Embedder
	opts   Options
	logger *zap.Logger
}

// New creates a maintenance service. embed is only needed by Regenerate.
func New(repo Repository, embed Embedder, opts Options, logger *zap.Logger) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	switch {
	case opts.SampleSize == 0:
		opts.SampleSize = DefaultSampleSize
	case opts.SampleSize < 0:
		opts.SampleSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, opts: opts, logger: logger}
}

// itemFunc processes one document and never panics the batch on failure.
type itemFunc func(ctx context.Context, doc *domdoc.Document) batch.Result

// process applies fn to every document and assembles the report in enumeration order.
// Documents are sharded to workers by id so writes to one id are serialized.
func (s *Service) process(
	ctx context.Context, op string, docs []domdoc.Document, fn itemFunc, opts []RunOption,
) *batch.Report {
	var r run
	for _, o := range opts {
		o(&r)
	}

	report := batch.NewReport(op, time.Now())
	results := make([]batch.Result, len(docs))

	var (
		mu   sync.Mutex
		done int
	)
	handle := func(i int) {
		res := fn(ctx, &docs[i])
		results[i] = res
		metrics.MaintenanceItemsTotal.WithLabelValues(op, string(res.Status())).Inc()
		if res.Err() != nil {
			s.logger.Warn("Maintenance item failed",
				zap.String("operation", op),
				zap.String("doc_id", res.ID()),
				zap.String("kind", string(res.Kind())),
				zap.Error(res.Err()),
			)
		}
		if r.progress != nil {
			mu.Lock()
			done++
			r.progress(done, len(docs))
			mu.Unlock()
		}
	}

	if s.opts.Workers == 1 || len(docs) < 2 {
		for i := range docs {
			handle(i)
		}
	} else {
		shards := make([][]int, s.opts.Workers)
		for i := range docs {
			w := shard(docs[i].ID(), s.opts.Workers)
			shards[w] = append(shards[w], i)
		}
		var wg sync.WaitGroup
		for _, idx := range shards {
			if len(idx) == 0 {
				continue
			}
			wg.Go(func() {
				for _, i := range idx {
					handle(i)
				}
			})
		}
		wg.Wait()
	}

	for _, res := range results {
		report.Add(res)
	}
	report.Finished = time.Now()

	s.logger.Info("Maintenance completed",
		zap.String("operation", op),
		zap.Int("total", report.Total()),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()),
		zap.Duration("duration", report.Duration()),
	)
	return report
}

func shard(id string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(n))
}
