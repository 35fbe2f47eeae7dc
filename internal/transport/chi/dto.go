package chi

// ErrorResponse is the body of every non-2xx response. Code is a domain.Kind.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	Content string `json:"content"`
}

// DocumentResponse is returned for a stored document.
type DocumentResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// BatchCreateRequest is the body of POST /documents/batch.
type BatchCreateRequest struct {
	Items []string `json:"items"`
}

// BatchCreateItem is the outcome of one batch input, in input order.
type BatchCreateItem struct {
	Index     int            `json:"index"`
	Success   bool           `json:"success"`
	ID        string         `json:"id,omitempty"`
	Duplicate bool           `json:"duplicate,omitempty"`
	Error     *ErrorResponse `json:"error,omitempty"`
}

// BatchCreateResponse aggregates a batch ingest.
type BatchCreateResponse struct {
	Items     []BatchCreateItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query     string   `json:"query"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
}

// MatchItem is one search match.
type MatchItem struct {
	ID              string  `json:"id"`
	Content         string  `json:"content"`
	SimilarityScore float64 `json:"similarity_score"`
}

// SearchResponse is the ordered match list.
type SearchResponse struct {
	Matches   []MatchItem `json:"matches"`
	Total     int         `json:"total"`
	Threshold float64     `json:"threshold"`
	Limit     int         `json:"limit"`
}

// SampleItem is one Verify sample.
type SampleItem struct {
	ID        string    `json:"id"`
	Preview   string    `json:"preview"`
	Dimension int       `json:"dimension"`
	Head      []float32 `json:"head"`
}

// VerifyResponse is the body of GET /maintenance/verify.
type VerifyResponse struct {
	Total      int            `json:"total"`
	Lengths    map[string]int `json:"lengths"`
	Missing    []string       `json:"missing"`
	Mismatched []string       `json:"mismatched"`
	Samples    []SampleItem   `json:"samples"`
	Healthy    bool           `json:"healthy"`
	Expected   int            `json:"expected_dimension"`
}

// ReportItem is one maintenance item outcome.
type ReportItem struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	FromDim int    `json:"from_dim"`
	ToDim   int    `json:"to_dim"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ReportResponse is the body of regenerate and truncate responses.
type ReportResponse struct {
	Operation  string       `json:"operation"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	DurationMS int64        `json:"duration_ms"`
	Items      []ReportItem `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
