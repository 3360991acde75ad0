package search

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/search/mode"
	"github.com/kailas-cloud/searchlab/internal/domain/search/query"
	"github.com/kailas-cloud/searchlab/internal/domain/search/request"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
	"github.com/kailas-cloud/searchlab/internal/logger"
)

// Service executes keyword, vector and hybrid queries.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	backend Backend
	embed   Embedder
}

// New creates a search service. embed may be nil when only keyword search is used.
func New(backend Backend, embed Embedder) *Service {
	return &Service{backend: backend, embed: embed}
}

// Search dispatches req by its mode.
func (s *Service) Search(ctx context.Context, indexName string, req *request.Request) ([]result.Result, error) {
	switch req.Mode() {
	case mode.Keyword:
		return s.Keyword(ctx, indexName, req)
	case mode.Vector:
		return s.Vector(ctx, indexName, req)
	case mode.Hybrid:
		return s.Hybrid(ctx, indexName, req)
	default:
		return nil, fmt.Errorf("%w: unsupported search mode: %s", domain.ErrInvalidSchema, req.Mode())
	}
}

// Keyword runs a full-text query. Without orderby results come in relevance order.
func (s *Service) Keyword(ctx context.Context, indexName string, req *request.Request) ([]result.Result, error) {
	if err := expectMode(req, mode.Keyword); err != nil {
		return nil, err
	}
	return s.run(ctx, indexName, req, BuildQuery(req, nil), req.Size())
}

// Vector embeds the query text and asks for the k nearest neighbors.
// The filter restricts candidates before the neighbor search.
func (s *Service) Vector(ctx context.Context, indexName string, req *request.Request) ([]result.Result, error) {
	if err := expectMode(req, mode.Vector); err != nil {
		return nil, err
	}
	vec, err := s.vectorize(ctx, req.VectorText())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, indexName, req, BuildQuery(req, vec), req.K())
}

// Hybrid sends keyword text and a query vector in one call.
// The fused score is computed remotely and passed through as is.
func (s *Service) Hybrid(ctx context.Context, indexName string, req *request.Request) ([]result.Result, error) {
	if err := expectMode(req, mode.Hybrid); err != nil {
		return nil, err
	}
	vec, err := s.vectorize(ctx, req.VectorText())
	if err != nil {
		return nil, err
	}
	return s.run(ctx, indexName, req, BuildQuery(req, vec), req.Size())
}

// Lookup fetches one document by key.
func (s *Service) Lookup(ctx context.Context, indexName, key string, selectFields ...string) (json.RawMessage, error) {
	raw, err := s.backend.Lookup(ctx, indexName, key, selectFields)
	if err != nil {
		return nil, fmt.Errorf("lookup %q in %s: %w", key, indexName, err)
	}
	return raw, nil
}

// Count returns the number of documents in the index.
func (s *Service) Count(ctx context.Context, indexName string) (int64, error) {
	n, err := s.backend.Count(ctx, indexName)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", indexName, err)
	}
	return n, nil
}

// BuildQuery resolves req into a backend query. vec is the embedded vector
// text and must be set for vector and hybrid requests.
// The filter is forwarded unchanged in every mode.
func BuildQuery(req *request.Request, vec []float32) query.Query {
	q := query.Query{
		Filter:  req.Filters().String(),
		OrderBy: req.OrderBy(),
		Select:  req.Select(),
		Top:     req.Size(),
	}
	if req.Mode().UsesText() {
		q.Search = req.Text()
		q.QueryType = string(req.Syntax())
	}
	if req.Mode().UsesVector() {
		q.VectorQueries = []query.VectorQuery{{
			Vector: vec,
			K:      req.K(),
			Fields: []string{req.VectorField()},
		}}
		if req.Mode() == mode.Vector {
			q.Top = req.K()
		}
	}
	return q
}

func (s *Service) vectorize(ctx context.Context, text string) ([]float32, error) {
	if s.embed == nil {
		return nil, fmt.Errorf("vectorize query: %w: no embedder configured", domain.ErrConfiguration)
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.QueryUsageFrom(ctx).Record(res.TotalTokens)

	logger.FromContext(ctx).Debug("query vectorized",
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res.Embedding, nil
}

func (s *Service) run(
	ctx context.Context, indexName string, req *request.Request, q query.Query, limit int,
) ([]result.Result, error) {
	ctx = logger.With(ctx, zap.String("index", indexName), zap.String("mode", string(req.Mode())))
	results, err := s.backend.Search(ctx, indexName, q)
	if err != nil {
		return nil, fmt.Errorf("%s search %s: %w", req.Mode(), indexName, err)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	logger.FromContext(ctx).Debug("search completed",
		zap.String("filter", q.Filter),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func expectMode(req *request.Request, want mode.Mode) error {
	if req.Mode() != want {
		return fmt.Errorf("%w: %s request passed to %s search", domain.ErrInvalidSchema, req.Mode(), want)
	}
	return nil
}
