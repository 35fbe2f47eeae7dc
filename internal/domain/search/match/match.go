package match

// Match is a single search hit: a read-only projection of a stored document.
type Match struct {
	id      string
	content string
	score   float64
}

// New creates a match.
func New(id, content string, score float64) Match {
	return Match{id: id, content: content, score: score}
}

// ID returns the document identifier.
func (m *Match) ID() string { return m.id }

// Content returns the document content.
func (m *Match) Content() string { return m.content }

// Score returns the cosine similarity reported by the store.
func (m *Match) Score() float64 { return m.score }
