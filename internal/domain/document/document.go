package document

import (
	"fmt"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 163840 // 160KB

// Document is the corpus entry (immutable value object).
// The id is assigned by the store; a freshly built document has none.
type Document struct {
	id        string
	content   string
	embedding []float32
}

// ValidateContent rejects blank or oversized text.
func ValidateContent(content string) error {
	if domain.IsBlank(content) {
		return fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if len(content) > MaxContentSize {
		return fmt.Errorf("%w: content too large (max %d bytes)", domain.ErrInvalidInput, MaxContentSize)
	}
	return nil
}

// New validates and creates a Document ready to be inserted.
// The embedding must be non-empty; its length is checked by the embedder, not here.
func New(content string, embedding []float32) (Document, error) {
	if err := ValidateContent(content); err != nil {
		return Document{}, err
	}
	if len(embedding) == 0 {
		return Document{}, fmt.Errorf("%w: embedding is empty", domain.ErrInvalidInput)
	}
	return Document{content: content, embedding: embedding}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, content string, embedding []float32) Document {
	return Document{id: id, content: content, embedding: embedding}
}

// ID returns the store-assigned identifier.
func (d *Document) ID() string { return d.id }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// Embedding returns the embedding vector.
func (d *Document) Embedding() []float32 { return d.embedding }

// Dimension returns the embedding length, 0 when absent.
func (d *Document) Dimension() int { return len(d.embedding) }

// HasEmbedding reports whether an embedding is present.
func (d *Document) HasEmbedding() bool { return len(d.embedding) > 0 }

// Searchable reports whether the embedding has the canonical dimension.
func (d *Document) Searchable() bool { return len(d.embedding) == domain.CanonicalDimension }

// WithEmbedding returns a copy with the embedding replaced. Content is kept as is.
func (d *Document) WithEmbedding(v []float32) Document {
	return Document{id: d.id, content: d.content, embedding: v}
}
