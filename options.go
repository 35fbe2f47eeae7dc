package corpusdex

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg        config.Config
	embedder   Embedder
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres stores documents in Postgres with pgvector. The schema is created when missing.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverPostgres
		c.cfg.Store.URL = dsn
		c.cfg.Store.Migrate = true
	})
}

// WithPostgREST stores documents behind a PostgREST endpoint (for example Supabase).
func WithPostgREST(url, key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverPostgREST
		c.cfg.Store.URL = url
		c.cfg.Store.Key = key
	})
}

// WithValkey stores documents in Valkey with the search module.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverValkey
		c.cfg.Store.Addrs = []string{addr}
		c.cfg.Store.Password = password
	})
}

// WithBolt stores documents in a local bbolt file.
func WithBolt(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverBolt
		c.cfg.Store.Path = path
	})
}

// WithMemory keeps documents in process memory. Intended for tests.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.Driver = config.DriverMemory
	})
}

// WithOpenAI embeds with the OpenAI API (text-embedding-3-small, 1536 dimensions).
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Provider = "openai"
		c.cfg.Embedding.APIKey = apiKey
	})
}

// WithOpenAIBaseURL points the OpenAI provider at a compatible endpoint.
func WithOpenAIBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.BaseURL = url
	})
}

// WithEmbedder replaces the OpenAI provider. Vectors must have 1536 components.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbeddingCache caches embeddings in the store's key-value space (valkey, bolt, memory).
func WithEmbeddingCache() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Cache.Enabled = true
	})
}

// WithWorkers sets maintenance parallelism. Default: 1.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Maintenance.Workers = n
	})
}

// WithDeduplication makes Ingest return the existing id for content already stored.
func WithDeduplication() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Ingest.Deduplicate = true
	})
}

// WithRenormalize L2-normalizes embeddings after Truncate.
func WithRenormalize() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Maintenance.RenormalizeTruncated = true
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
