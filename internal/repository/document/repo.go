package document

import (
	"context"
	"time"

	"github.com/kailas-cloud/corpusdex/internal/db"
	domdoc "github.com/kailas-cloud/corpusdex/internal/domain/document"
	"github.com/kailas-cloud/corpusdex/internal/metrics"
)

// store is the consumer interface for documents (ISP).
type store interface {
	Insert(ctx context.Context, content string, embedding []float32) (string, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	SelectAll(ctx context.Context, cols ...db.Column) ([]db.Record, error)
}

// Repo adapts a db driver to domain documents and domain errors.
type Repo struct {
	store  store
	driver string
}

// New creates a document repository. driver labels store metrics.
func New(s store, driver string) *Repo {
	return &Repo{store: s, driver: driver}
}

// Create inserts doc and returns the store-assigned id.
func (r *Repo) Create(ctx context.Context, doc *domdoc.Document) (string, error) {
	start := time.Now()
	id, err := r.store.Insert(ctx, doc.Content(), doc.Embedding())
	metrics.ObserveStore(r.driver, db.OpInsert, start, err)
	if err != nil {
		return "", db.ToDomain("insert document", err)
	}
	return id, nil
}

// UpdateEmbedding replaces the embedding of document id.
func (r *Repo) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	start := time.Now()
	err := r.store.UpdateEmbedding(ctx, id, embedding)
	metrics.ObserveStore(r.driver, db.OpUpdate, start, err)
	if err != nil {
		return db.ToDomain("update embedding "+id, err)
	}
	return nil
}

// List returns every document, populating the requested columns only.
func (r *Repo) List(ctx context.Context, cols ...db.Column) ([]domdoc.Document, error) {
	start := time.Now()
	records, err := r.store.SelectAll(ctx, cols...)
	metrics.ObserveStore(r.driver, db.OpSelect, start, err)
	if err != nil {
		return nil, db.ToDomain("list documents", err)
	}

	docs := make([]domdoc.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, domdoc.Reconstruct(rec.ID, rec.Content, rec.Embedding))
	}
	return docs, nil
}
