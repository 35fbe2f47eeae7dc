// Package app is the composition root shared by the CLI and the library facade.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/config"
	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/db/bolt"
	"github.com/kailas-cloud/corpusdex/internal/db/memory"
	"github.com/kailas-cloud/corpusdex/internal/db/postgres"
	"github.com/kailas-cloud/corpusdex/internal/db/postgrest"
	"github.com/kailas-cloud/corpusdex/internal/db/valkey"
	"github.com/kailas-cloud/corpusdex/internal/domain"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
	documentrepo "github.com/kailas-cloud/corpusdex/internal/repository/document"
	"github.com/kailas-cloud/corpusdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/corpusdex/internal/repository/search"
	openaiEmb "github.com/kailas-cloud/corpusdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/corpusdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/corpusdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/corpusdex/internal/usecase/ingest"
	maintenanceuc "github.com/kailas-cloud/corpusdex/internal/usecase/maintenance"
	searchuc "github.com/kailas-cloud/corpusdex/internal/usecase/search"
)

// customEmbedderKey stands in for the API key when the caller supplies its own embedder.
const customEmbedderKey = "custom"

// App bundles the wired services.
type App struct {
	Config      config.Config
	Store       db.Store
	Embedder    *embeddinguc.Service
	Ingest      *ingestuc.Service
	Search      *searchuc.Service
	Maintenance *maintenanceuc.Service
	Health      *healthuc.Service
}

// Option overrides a collaborator built from configuration.
type Option func(*options)

type options struct {
	store    db.Store
	embedder domain.Embedder
}

// WithStore uses s instead of opening the configured driver. App.Close still closes it.
func WithStore(s db.Store) Option {
	return func(o *options) { o.store = s }
}

// WithEmbedder replaces the OpenAI provider. The embedding guard still applies.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// New opens the store, waits for it and wires every service.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterStoreMetrics()

	store := o.store
	if store == nil {
		var err error
		if store, err = OpenStore(ctx, &cfg); err != nil {
			return nil, err
		}
	}

	readiness := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	if err := prepare(ctx, store, &cfg); err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("Connected to document store", zap.String("driver", cfg.Store.Driver))

	embedder := buildEmbedder(&cfg, store, o.embedder, logger)

	creds := cfg.Credentials()
	if o.embedder != nil && creds.EmbeddingAPIKey == "" {
		creds.EmbeddingAPIKey = customEmbedderKey
	}

	docs := documentrepo.New(store, cfg.Store.Driver)
	matches := searchrepo.New(store, cfg.Store.Driver)

	a := &App{
		Config:   cfg,
		Store:    store,
		Embedder: embedder,
		Ingest: ingestuc.New(docs, embedder, ingestuc.Options{
			Deduplicate: cfg.Ingest.Deduplicate,
		}, logger),
		Search: searchuc.New(matches, embedder, creds, docs, logger),
		Maintenance: maintenanceuc.New(docs, embedder, maintenanceuc.Options{
			Workers:     cfg.Maintenance.Workers,
			SampleSize:  cfg.Maintenance.SampleSize,
			Renormalize: cfg.Maintenance.RenormalizeTruncated,
		}, logger),
		Health: healthuc.New(store, embedder),
	}
	return a, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

// OpenStore creates the configured driver. It does not wait for the server.
// Missing store credentials fail with ErrConfiguration before any driver is built.
func OpenStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if err := cfg.Credentials().ValidateStore(); err != nil {
		return nil, err
	}
	sc := cfg.Store
	switch sc.Driver {
	case config.DriverPostgres:
		return postgres.NewStore(ctx, postgres.Config{
			DSN:      sc.URL,
			Table:    sc.Table,
			Function: sc.Function,
			MaxConns: sc.MaxConns,
		})
	case config.DriverPostgREST:
		return postgrest.NewStore(postgrest.Config{
			URL:      sc.URL,
			Key:      sc.Key,
			Table:    sc.Table,
			Function: sc.Function,
			PageSize: sc.PageSize,
			Timeout:  cfg.StoreCallTimeout(),
		})
	case config.DriverValkey:
		return valkey.NewStore(valkey.Config{
			Addrs:              sc.Addrs,
			Username:           sc.Username,
			Password:           sc.Password,
			KeyPrefix:          sc.KeyPrefix,
			HNSWM:              sc.HNSWM,
			HNSWEFConstruct:    sc.HNSWEFConstruct,
			HNSWEFRuntime:      sc.HNSWEFRuntime,
			EmbeddingDimension: domain.CanonicalDimension,
		})
	case config.DriverBolt:
		return bolt.Open(sc.Path)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrConfiguration, sc.Driver)
	}
}

// prepare installs driver-side schema when the driver owns one.
func prepare(ctx context.Context, store db.Store, cfg *config.Config) error {
	switch s := store.(type) {
	case *postgres.Store:
		if cfg.Store.Migrate {
			if err := s.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure postgres schema: %w", err)
			}
		}
	case *valkey.Store:
		if err := s.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("ensure valkey index: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles provider -> optional cache -> guard.
func buildEmbedder(cfg *config.Config, store db.Store, custom domain.Embedder, logger *zap.Logger) *embeddinguc.Service {
	ec := cfg.Embedding

	inner := custom
	if inner == nil {
		inner = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
	}

	if ec.Cache.Enabled {
		if kv, ok := store.(db.KVStore); ok {
			inner = embcache.New(inner, kv, embcache.Config{
				Model:      ec.Model,
				Dimensions: ec.Dimensions,
				KeyPrefix:  ec.Cache.KeyPrefix,
			}, metrics.EmbeddingCacheTotal, logger)
		} else {
			logger.Warn("Embedding cache disabled: store has no key-value support",
				zap.String("driver", cfg.Store.Driver))
		}
	}

	apiKey := ec.APIKey
	if custom != nil && apiKey == "" {
		apiKey = customEmbedderKey
	}
	return embeddinguc.New(inner, embeddinguc.Config{
		Provider: ec.Provider,
		Model:    ec.Model,
		APIKey:   apiKey,
		Timeout:  cfg.EmbeddingCallTimeout(),
	}, logger)
}
