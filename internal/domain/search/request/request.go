package request

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength   = 4096
	DefaultThreshold = 0.1
	DefaultLimit     = 5
	MaxLimit         = 100
)

// Request is a validated search query.
type Request struct {
	query     string
	threshold float64
	limit     int
}

// Option overrides a search default.
type Option func(*Request)

// WithThreshold sets the exclusive similarity lower bound.
func WithThreshold(t float64) Option {
	return func(r *Request) { r.threshold = t }
}

// WithLimit sets the maximum number of matches.
func WithLimit(n int) Option {
	return func(r *Request) { r.limit = n }
}

// New validates and normalizes search parameters.
// Defaults: threshold=0.1, limit=5. Limit above MaxLimit is clamped.
func New(query string, opts ...Option) (Request, error) {
	r := Request{
		query:     strings.TrimSpace(query),
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
	}
	for _, o := range opts {
		o(&r)
	}

	if r.query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if len(r.query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidInput, MaxQueryLength)
	}
	if math.IsNaN(r.threshold) || r.threshold < 0 || r.threshold >= 1 {
		return Request{}, fmt.Errorf("%w: threshold must be in [0, 1)", domain.ErrInvalidInput)
	}
	if r.limit <= 0 {
		return Request{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}
	if r.limit > MaxLimit {
		r.limit = MaxLimit
	}
	return r, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Threshold returns the exclusive minimum similarity.
func (r *Request) Threshold() float64 { return r.threshold }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }
