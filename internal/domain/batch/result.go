package batch

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchlab/internal/domain"
)

// ItemStatus is the indexing outcome of a single uploaded document.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of indexing one document in an upload batch.
type Result struct {
	key        string
	status     ItemStatus
	statusCode int
	message    string
}

// NewOK creates a successful batch result.
func NewOK(key string, statusCode int) Result {
	return Result{key: key, status: StatusOK, statusCode: statusCode}
}

// NewError creates a rejected batch result carrying the service message.
func NewError(key string, statusCode int, message string) Result {
	return Result{key: key, status: StatusError, statusCode: statusCode, message: message}
}

// Key returns the document key.
func (r Result) Key() string { return r.key }

// Status returns the indexing outcome.
func (r Result) Status() ItemStatus { return r.status }

// StatusCode returns the per-document HTTP status reported by the service.
func (r Result) StatusCode() int { return r.statusCode }

// Message returns the service error message, empty on success.
func (r Result) Message() string { return r.message }

// Report is the outcome of one upload batch, in request order.
type Report struct {
	Index   string
	Results []Result
}

// Succeeded returns the number of indexed documents.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.status == StatusOK {
			n++
		}
	}
	return n
}

// Failed returns the rejected documents.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.status == StatusError {
			out = append(out, res)
		}
	}
	return out
}

// Err returns an ErrPartialUpload error listing rejected keys, nil when all succeeded.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, len(failed))
	for i, f := range failed {
		parts[i] = fmt.Sprintf("%s (%d: %s)", f.key, f.statusCode, f.message)
	}
	return fmt.Errorf("%w: index %q: %d of %d documents rejected: %s",
		domain.ErrPartialUpload, r.Index, len(failed), len(r.Results), strings.Join(parts, "; "))
}
