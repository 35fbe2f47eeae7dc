package corpusdex

import "time"

// StoreResult is the outcome of storing one document.
type StoreResult struct {
	Success   bool
	StoredID  string
	Duplicate bool
	Err       error
}

// Match is one search hit. Score is cosine similarity in (threshold, 1].
type Match struct {
	ID      string
	Content string
	Score   float64
}

// Sample is a diagnostic view of one stored document.
type Sample struct {
	ID        string
	Preview   string
	Dimension int
	Head      []float32
}

// VerifyReport summarizes embedding lengths across the corpus.
type VerifyReport struct {
	Total      int
	Lengths    map[int]int // embedding length -> documents; 0 means missing
	Missing    []string
	Mismatched []string
	Samples    []Sample
	Healthy    bool
}

// ItemStatus is the per-document maintenance outcome.
type ItemStatus string

// Item statuses.
const (
	ItemOK      ItemStatus = "ok"
	ItemSkipped ItemStatus = "skipped"
	ItemError   ItemStatus = "error"
)

// ItemResult is one document's maintenance outcome.
type ItemResult struct {
	ID      string
	Status  ItemStatus
	FromDim int
	ToDim   int
	Err     error
}

// Report aggregates a Regenerate or Truncate run.
type Report struct {
	Operation string
	Items     []ItemResult
	Succeeded int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}
