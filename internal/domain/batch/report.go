package batch

import "time"

// Report aggregates the per-document outcomes of one maintenance run.
type Report struct {
	Operation string
	Items     []Result
	Started   time.Time
	Finished  time.Time
}

// NewReport creates an empty report for the named operation.
func NewReport(op string, started time.Time) *Report {
	return &Report{Operation: op, Started: started}
}

// Add appends an item outcome.
func (r *Report) Add(res Result) { r.Items = append(r.Items, res) }

// Total returns the number of processed documents.
func (r *Report) Total() int { return len(r.Items) }

// Succeeded returns the number of rewritten documents.
func (r *Report) Succeeded() int { return r.count(StatusOK) }

// Failed returns the number of documents that could not be processed.
func (r *Report) Failed() int { return r.count(StatusError) }

// Skipped returns the number of documents left untouched.
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

// Failures returns the failed items only.
func (r *Report) Failures() []Result {
	var out []Result
	for _, it := range r.Items {
		if it.status == StatusError {
			out = append(out, it)
		}
	}
	return out
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

func (r *Report) count(s ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.status == s {
			n++
		}
	}
	return n
}
