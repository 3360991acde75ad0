package azsearchtest

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/kailas-cloud/searchlab/internal/domain"
)

// Embedder is a deterministic bag-of-words embedder: each token is hashed
// into one of Dims buckets and the vector is L2-normalized. Texts sharing
// words have a high cosine similarity, which is enough to exercise kNN
// ordering against the fake.
type Embedder struct {
	Dims  int
	Calls int
}

// Embed implements domain.Embedder. Token usage is one per token.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.Calls++
	vec, n := e.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: n, TotalTokens: n}, nil
}

// BatchEmbed implements domain.BatchEmbedder in one call.
func (e *Embedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.Calls++
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		vec, n := e.vector(t)
		out.Embeddings[i] = vec
		out.PromptTokens += n
		out.TotalTokens += n
	}
	return out, nil
}

func (e *Embedder) vector(text string) ([]float32, int) {
	vec := make([]float32, e.Dims)
	tokens := tokenize(text)
	for _, t := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(t))
		vec[h.Sum32()%uint32(e.Dims)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, len(tokens)
}
