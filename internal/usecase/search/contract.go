package search

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/search/query"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
)

// Backend executes resolved queries against the remote index.
type Backend interface {
	Search(ctx context.Context, indexName string, q query.Query) ([]result.Result, error)
	Lookup(ctx context.Context, indexName, key string, selectFields []string) (json.RawMessage, error)
	Count(ctx context.Context, indexName string) (int64, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
