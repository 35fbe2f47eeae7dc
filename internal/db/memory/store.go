// Package memory is an in-process document store for tests, demos and `store.driver: memory`.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

// Compile-time checks.
var (
	_ db.Store   = (*Store)(nil)
	_ db.KVStore = (*Store)(nil)
)

// Store keeps documents in insertion order behind a RWMutex.
type Store struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]db.Record
	kv    map[string][]byte

	withoutOperator bool
}

// Option configures a memory store.
type Option func(*Store)

// WithoutOperator simulates a store that has no similarity operator installed.
func WithoutOperator() Option {
	return func(s *Store) { s.withoutOperator = true }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{docs: make(map[string]db.Record), kv: make(map[string][]byte)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seed inserts records with explicit ids, used for fixtures with non-canonical embeddings.
func (s *Store) Seed(records ...db.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.docs[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		r.Embedding = slices.Clone(r.Embedding)
		s.docs[r.ID] = r
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Insert stores a copy of the document under a random UUID.
func (s *Store) Insert(ctx context.Context, content string, embedding []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &db.Error{Op: db.OpInsert, Err: err}
	}
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, id)
	s.docs[id] = db.Record{ID: id, Content: content, Embedding: slices.Clone(embedding)}
	return id, nil
}

// UpdateEmbedding replaces the embedding of an existing document.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: db.OpUpdate, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return db.ErrRecordNotFound
	}
	rec.Embedding = slices.Clone(embedding)
	s.docs[id] = rec
	return nil
}

// SelectAll returns copies of all documents in insertion order.
func (s *Store) SelectAll(ctx context.Context, cols ...db.Column) ([]db.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	proj := db.NewProjection(cols)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]db.Record, 0, len(s.order))
	for _, id := range s.order {
		rec := s.docs[id]
		rec.Embedding = slices.Clone(rec.Embedding)
		out = append(out, proj.Apply(rec))
	}
	return out, nil
}

// SimilaritySearch ranks the corpus by cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityRow, error) {
	if s.withoutOperator {
		return nil, &db.Error{Op: db.OpMatch, Err: db.ErrOperatorNotFound}
	}
	recs, err := s.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	return db.Rank(recs, q), nil
}

// Get retrieves a cached value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

// Set stores a value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = slices.Clone(value)
	return nil
}

// Len returns the number of documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
