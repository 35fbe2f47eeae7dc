package db

// Column names a document attribute for SelectAll projections.
type Column string

// Document columns.
const (
	ColumnID        Column = "id"
	ColumnContent   Column = "content"
	ColumnEmbedding Column = "embedding"
)

// AllColumns is the full projection.
var AllColumns = []Column{ColumnID, ColumnContent, ColumnEmbedding}

// Record is a raw stored document.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
}

// SimilarityQuery is the input of the store's similarity operator.
type SimilarityQuery struct {
	Embedding []float32
	Threshold float64
	Limit     int
}

// SimilarityRow is a single row returned by the similarity operator.
type SimilarityRow struct {
	ID      string
	Content string
	Score   float64
}

// Projection reports which optional columns were requested.
// An empty column list means all columns.
type Projection struct {
	Content   bool
	Embedding bool
}

// NewProjection resolves a SelectAll column list.
func NewProjection(cols []Column) Projection {
	if len(cols) == 0 {
		return Projection{Content: true, Embedding: true}
	}
	var p Projection
	for _, c := range cols {
		switch c {
		case ColumnContent:
			p.Content = true
		case ColumnEmbedding:
			p.Embedding = true
		}
	}
	return p
}

// Apply blanks the columns not in the projection.
func (p Projection) Apply(r Record) Record {
	if !p.Content {
		r.Content = ""
	}
	if !p.Embedding {
		r.Embedding = nil
	}
	return r
}
