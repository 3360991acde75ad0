package seed

import (
	"context"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/batch"
)

// Uploader sends one batch of documents to an index.
type Uploader interface {
	Upload(ctx context.Context, indexName string, docs []map[string]any) (batch.Report, error)
}

// Embedder vectorizes text into embeddings. Batch support is detected at runtime.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
