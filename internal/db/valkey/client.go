package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/corpusdex/internal/db"
	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// Compile-time checks.
var (
	_ db.Store   = (*Store)(nil)
	_ db.KVStore = (*Store)(nil)
)

// DefaultKeyPrefix namespaces every key the store writes.
const DefaultKeyPrefix = "corpus:"

// Config holds connection and index parameters for a Valkey store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	// Algorithm is "HNSW" (default) or "FLAT".
	Algorithm          string
	HNSWM              int
	HNSWEFConstruct    int
	HNSWEFRuntime      int
	EmbeddingDimension int
}

// Store implements db.Store via rueidis for Valkey with the search module.
// Each document is a hash {content, embedding} under {prefix}doc:{uuid}.
type Store struct {
	client    rueidis.Client
	prefix    string
	dim       int
	algo      db.VectorAlgorithm
	m         int
	efBuild   int
	efRuntime int
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg), nil
}

func newStore(c rueidis.Client, cfg Config) *Store {
	s := &Store{
		client:    c,
		prefix:    cfg.KeyPrefix,
		dim:       cfg.EmbeddingDimension,
		algo:      db.VectorHNSW,
		m:         cfg.HNSWM,
		efBuild:   cfg.HNSWEFConstruct,
		efRuntime: cfg.HNSWEFRuntime,
	}
	if s.prefix == "" {
		s.prefix = DefaultKeyPrefix
	}
	if s.dim <= 0 {
		s.dim = domain.CanonicalDimension
	}
	if strings.EqualFold(cfg.Algorithm, string(db.VectorFlat)) {
		s.algo = db.VectorFlat
	}
	return s
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// IndexName returns the FT index name backing SimilaritySearch.
func (s *Store) IndexName() string { return s.prefix + "idx" }

func (s *Store) docPrefix() string { return s.prefix + "doc:" }

func (s *Store) docKey(id string) string { return s.docPrefix() + id }

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr checks if err is a server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}

func isMissingIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") ||
		isRedisErr(err, "not found in database") || isRedisErr(err, "unknown command")
}
