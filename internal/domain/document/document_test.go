package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	vec := make([]float32, domain.CanonicalDimension)
	doc, err := New("the quick brown fox", vec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "" {
		t.Errorf("ID() should be empty before insert, got %q", doc.ID())
	}
	if doc.Content() != "the quick brown fox" {
		t.Errorf("Content() = %q", doc.Content())
	}
	if !doc.Searchable() {
		t.Error("expected canonical document to be searchable")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		embedding []float32
	}{
		{"empty content", "", []float32{1}},
		{"blank content", "  \n\t", []float32{1}},
		{"too large", strings.Repeat("x", MaxContentSize+1), []float32{1}},
		{"nil embedding", "text", nil},
		{"empty embedding", "text", []float32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.content, tt.embedding)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestReconstruct_Dimension(t *testing.T) {
	doc := Reconstruct("42", "content", make([]float32, 3072))
	if doc.ID() != "42" || doc.Dimension() != 3072 {
		t.Errorf("unexpected doc: id=%q dim=%d", doc.ID(), doc.Dimension())
	}
	if doc.Searchable() {
		t.Error("3072-dim document must not be searchable")
	}

	empty := Reconstruct("43", "content", nil)
	if empty.HasEmbedding() || empty.Dimension() != 0 {
		t.Error("expected no embedding")
	}
}

func TestWithEmbedding_KeepsContent(t *testing.T) {
	doc := Reconstruct("1", "keep me", []float32{1, 2, 3})
	next := doc.WithEmbedding([]float32{4})
	if next.Content() != "keep me" || next.ID() != "1" {
		t.Errorf("content or id changed: %+v", next)
	}
	if doc.Dimension() != 3 {
		t.Error("original must not change")
	}
}
