package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals a missing or invalid endpoint or credential.
	// Detected only when a call is attempted.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmbedding signals a failed embedding request or an undecodable payload.
	ErrEmbedding = errors.New("embedding error")
	// ErrIndexProvisioning signals a rejected index, knowledge source or agent definition.
	ErrIndexProvisioning = errors.New("index provisioning error")
	// ErrQuerySyntax signals a malformed filter, order or search expression.
	ErrQuerySyntax = errors.New("query syntax error")
	// ErrRetrieval signals a generic remote call failure (auth, throttling, timeout, 5xx).
	ErrRetrieval = errors.New("retrieval error")
	// ErrResponseShape signals that an essential part of a decoded response is missing.
	ErrResponseShape = errors.New("response shape error")
	// ErrPartialUpload signals that the service rejected some documents of a batch.
	ErrPartialUpload = errors.New("partial upload")
	// ErrInvalidSchema signals an invalid schema, index or request definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrNotFound signals a missing remote resource.
	ErrNotFound = errors.New("not found")
)

// RemoteError carries the diagnostic returned by the search service.
type RemoteError struct {
	Kind      error
	Operation string
	Status    int
	Code      string
	Message   string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: status %d (%s): %s", e.Kind, e.Operation, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", e.Kind, e.Operation, e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// NewRemoteError creates a RemoteError of the given kind.
func NewRemoteError(kind error, op string, status int, code, message string) error {
	return &RemoteError{Kind: kind, Operation: op, Status: status, Code: code, Message: message}
}

// RemoteStatus extracts the remote HTTP status from err, or 0 if err is not a RemoteError.
func RemoteStatus(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}
