package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies remote dependency availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
// Embeddings are in input order.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Append adds the vectors and usage of a later chunk.
func (r *BatchEmbeddingResult) Append(next BatchEmbeddingResult) {
	r.Embeddings = append(r.Embeddings, next.Embeddings...)
	r.PromptTokens += next.PromptTokens
	r.TotalTokens += next.TotalTokens
}

// BatchFallback calls Embed once per text. Used for embedders without a native batch call.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.Append(BatchEmbeddingResult{
			Embeddings:   [][]float32{res.Embedding},
			PromptTokens: res.PromptTokens,
			TotalTokens:  res.TotalTokens,
		})
	}
	return out, nil
}

// EmbedAll vectorizes texts through the batch path when e supports it.
// A result whose vector count differs from len(texts) wraps ErrEmbedding.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	var (
		res BatchEmbeddingResult
		err error
	)
	if be, ok := e.(BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = BatchFallback(ctx, e, texts)
	}
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w: expected %d embeddings, got %d",
			ErrEmbedding, len(texts), len(res.Embeddings))
	}
	return res, nil
}

// EmbedDocuments fills the vector field of every document from its
// EmbeddingSource in one batch. Documents are left untouched on error.
func EmbedDocuments(ctx context.Context, e Embedder, docs []VectorDocument) (BatchEmbeddingResult, error) {
	if len(docs) == 0 {
		return BatchEmbeddingResult{}, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.EmbeddingSource()
	}
	res, err := EmbedAll(ctx, e, texts)
	if err != nil {
		return BatchEmbeddingResult{}, err
	}
	for i, d := range docs {
		d.SetEmbedding(res.Embeddings[i])
	}
	return res, nil
}
