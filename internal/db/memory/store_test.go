package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/corpusdex/internal/db"
)

func TestInsertSelectAll_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	emb := []float32{1, 2, 3}
	id, err := s.Insert(ctx, "hello", emb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	emb[0] = 99 // caller mutation must not leak into the store

	recs, err := s.SelectAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != id || recs[0].Content != "hello" {
		t.Fatalf("recs = %+v", recs)
	}
	if recs[0].Embedding[0] != 1 {
		t.Errorf("embedding aliased caller slice: %v", recs[0].Embedding)
	}
}

func TestSelectAll_ProjectionAndOrder(t *testing.T) {
	s := New()
	s.Seed(
		db.Record{ID: "b", Content: "second", Embedding: []float32{1}},
		db.Record{ID: "a", Content: "first", Embedding: []float32{2}},
	)
	recs, err := s.SelectAll(context.Background(), db.ColumnID, db.ColumnEmbedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs[0].ID != "b" || recs[1].ID != "a" {
		t.Errorf("insertion order lost: %s, %s", recs[0].ID, recs[1].ID)
	}
	if recs[0].Content != "" || len(recs[0].Embedding) != 1 {
		t.Errorf("projection not applied: %+v", recs[0])
	}
}

func TestUpdateEmbedding(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Seed(db.Record{ID: "1", Content: "keep", Embedding: []float32{1, 2, 3, 4}})

	if err := s.UpdateEmbedding(ctx, "1", []float32{9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs, _ := s.SelectAll(ctx)
	if recs[0].Content != "keep" || len(recs[0].Embedding) != 1 {
		t.Errorf("rec = %+v", recs[0])
	}

	if err := s.UpdateEmbedding(ctx, "nope", []float32{1}); !errors.Is(err, db.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSimilaritySearch(t *testing.T) {
	s := New()
	s.Seed(
		db.Record{ID: "x", Content: "x-axis", Embedding: []float32{1, 0}},
		db.Record{ID: "y", Content: "y-axis", Embedding: []float32{0, 1}},
		db.Record{ID: "xy", Content: "diagonal", Embedding: []float32{1, 1}},
	)
	rows, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{
		Embedding: []float32{1, 0}, Threshold: 0.1, Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "x" || rows[1].ID != "xy" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSimilaritySearch_WithoutOperator(t *testing.T) {
	s := New(WithoutOperator())
	_, err := s.SimilaritySearch(context.Background(), &db.SimilarityQuery{Embedding: []float32{1}, Limit: 1})
	if !errors.Is(err, db.ErrOperatorNotFound) {
		t.Errorf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Insert(ctx, "a", []float32{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
	if s.Len() != 0 {
		t.Error("canceled insert must not store")
	}
}

func TestKV(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	_ = s.Set(ctx, "k", []byte("v"))
	v, err := s.Get(ctx, "k")
	if err != nil || string(v) != "v" {
		t.Errorf("Get = %q, %v", v, err)
	}
}
