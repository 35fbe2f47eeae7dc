package batch

import "github.com/kailas-cloud/corpusdex/internal/domain"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusError   ItemStatus = "error"
	StatusSkipped ItemStatus = "skipped"
)

// Result is the outcome of processing one document in a batch operation.
type Result struct {
	id      string
	status  ItemStatus
	err     error
	fromDim int
	toDim   int
}

// NewOK creates a successful batch result with the embedding length before and after.
func NewOK(id string, fromDim, toDim int) Result {
	return Result{id: id, status: StatusOK, fromDim: fromDim, toDim: toDim}
}

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// NewSkipped creates a result for a document that needed no change.
func NewSkipped(id string, dim int) Result {
	return Result{id: id, status: StatusSkipped, fromDim: dim, toDim: dim}
}

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Kind returns the error classification, empty on success.
func (r Result) Kind() domain.Kind { return domain.KindOf(r.err) }

// FromDim returns the embedding length before processing.
func (r Result) FromDim() int { return r.fromDim }

// ToDim returns the embedding length after processing.
func (r Result) ToDim() int { return r.toDim }
