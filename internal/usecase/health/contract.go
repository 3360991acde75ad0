package health

import "context"

// SearchChecker checks search service availability and credentials.
type SearchChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexCounter counts the documents in an index. A missing index is an error.
type IndexCounter interface {
	Count(ctx context.Context, indexName string) (int64, error)
}
