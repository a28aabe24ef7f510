// Package batch describes per-item outcomes of a multi-item operation such as chunk ingestion.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
	// StatusSkipped marks items never attempted because the operation was cancelled or aborted.
	StatusSkipped ItemStatus = "skipped"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	index  int
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string, index int) Result { return Result{id: id, index: index, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(id string, index int, err error) Result {
	return Result{id: id, index: index, status: StatusError, err: err}
}

// NewSkipped creates a result for an item that was never processed.
func NewSkipped(id string, index int) Result {
	return Result{id: id, index: index, status: StatusSkipped}
}

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Index returns the item position in the batch.
func (r Result) Index() int { return r.index }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Counts tallies results by status.
type Counts struct {
	OK      int
	Failed  int
	Skipped int
}

// Count tallies results by status.
func Count(results []Result) Counts {
	var c Counts
	for _, r := range results {
		switch r.status {
		case StatusOK:
			c.OK++
		case StatusError:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}
