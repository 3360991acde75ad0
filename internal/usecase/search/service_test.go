package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/search/filter"
	"github.com/kailas-cloud/searchlab/internal/domain/search/mode"
	"github.com/kailas-cloud/searchlab/internal/domain/search/query"
	"github.com/kailas-cloud/searchlab/internal/domain/search/request"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
)

// --- Mocks ---

type mockBackend struct {
	results   []result.Result
	err       error
	lastIndex string
	lastQuery query.Query
	calls     int

	doc      json.RawMessage
	count    int64
	lastKey  string
	lastSel  []string
	countErr error
}

func (m *mockBackend) Search(_ context.Context, indexName string, q query.Query) ([]result.Result, error) {
	m.calls++
	m.lastIndex = indexName
	m.lastQuery = q
	return m.results, m.err
}

func (m *mockBackend) Lookup(_ context.Context, _ string, key string, sel []string) (json.RawMessage, error) {
	m.lastKey = key
	m.lastSel = sel
	if m.doc == nil {
		return nil, fmt.Errorf("docs.lookup: %w", domain.ErrNotFound)
	}
	return m.doc, nil
}

func (m *mockBackend) Count(_ context.Context, _ string) (int64, error) {
	return m.count, m.countErr
}

type mockEmbedder struct {
	vec      []float32
	err      error
	called   bool
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.called = true
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

func scored(key string, score float64) result.Result {
	return result.New(&score, nil, map[string]any{"Id": key}, nil)
}

func salaryFilter(t *testing.T) filter.Expression {
	t.Helper()
	gt := 125000.0
	r, err := filter.NewRangeFilter(&gt, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewRangeFilter: %v", err)
	}
	c, err := filter.NewRange("Salary", r)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return filter.All(c)
}

// mustRequest adapts a request constructor result: mustRequest(t)(request.NewKeyword(...)).
func mustRequest(t *testing.T) func(request.Request, error) *request.Request {
	return func(r request.Request, err error) *request.Request {
		t.Helper()
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		return &r
	}
}

// --- Tests ---

func TestKeyword_BuildsQuery(t *testing.T) {
	backend := &mockBackend{results: []result.Result{scored("5", 2.1)}}
	embed := &mockEmbedder{}
	svc := New(backend, embed)

	fantasy, _ := filter.NewContains("Genres", "Fantasy")
	req := mustRequest(t)(request.NewKeyword(request.MatchAll,
		request.WithFilter(filter.All(fantasy)),
		request.WithOrderBy("PageCount desc"),
		request.WithSize(10),
	))

	results, err := svc.Keyword(context.Background(), "books", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if embed.called {
		t.Error("keyword search must not embed")
	}

	q := backend.lastQuery
	if backend.lastIndex != "books" {
		t.Errorf("index = %q", backend.lastIndex)
	}
	if q.Search != "*" || q.QueryType != "simple" {
		t.Errorf("search = %q, queryType = %q", q.Search, q.QueryType)
	}
	if q.Filter != "search.ismatch('Fantasy', 'Genres')" {
		t.Errorf("filter = %q", q.Filter)
	}
	if len(q.OrderBy) != 1 || q.OrderBy[0] != "PageCount desc" {
		t.Errorf("orderby = %v", q.OrderBy)
	}
	if q.Top != 10 {
		t.Errorf("top = %d, want 10", q.Top)
	}
	if q.HasVector() {
		t.Error("keyword query must not carry vector queries")
	}
}

func TestVector_BuildsQuery(t *testing.T) {
	backend := &mockBackend{}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := New(backend, embed)

	req := mustRequest(t)(request.NewVector("RAG and multi-agent solutions", "DescriptionVector",
		request.WithK(3), request.WithFilter(salaryFilter(t))))

	if _, err := svc.Vector(context.Background(), "jobs", req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embed.lastText != "RAG and multi-agent solutions" {
		t.Errorf("embedded %q", embed.lastText)
	}

	q := backend.lastQuery
	if q.Search != "" || q.QueryType != "" {
		t.Errorf("vector query must omit search text, got %q/%q", q.Search, q.QueryType)
	}
	if q.Top != 3 {
		t.Errorf("top = %d, want k=3", q.Top)
	}
	if len(q.VectorQueries) != 1 {
		t.Fatalf("expected 1 vector query, got %d", len(q.VectorQueries))
	}
	vq := q.VectorQueries[0]
	if vq.K != 3 || len(vq.Fields) != 1 || vq.Fields[0] != "DescriptionVector" || len(vq.Vector) != 2 {
		t.Errorf("unexpected vector query: %+v", vq)
	}
	if q.Filter != "Salary gt 125000" {
		t.Errorf("filter = %q", q.Filter)
	}
}

func TestHybrid_SeparateVectorText(t *testing.T) {
	backend := &mockBackend{}
	embed := &mockEmbedder{vec: []float32{1}}
	svc := New(backend, embed)

	req := mustRequest(t)(request.NewHybrid("Azure Engineer", "multi-agent AI systems, RAG and vector retrieval",
		"DescriptionVector", request.WithSize(5)))

	if _, err := svc.Hybrid(context.Background(), "jobs", req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embed.lastText != "multi-agent AI systems, RAG and vector retrieval" {
		t.Errorf("embedded %q, want the vector text", embed.lastText)
	}
	q := backend.lastQuery
	if q.Search != "Azure Engineer" {
		t.Errorf("search = %q", q.Search)
	}
	if q.Top != 5 || q.VectorQueries[0].K != 5 {
		t.Errorf("top = %d, k = %d", q.Top, q.VectorQueries[0].K)
	}
}

func TestSearch_FilterForwardedInEveryMode(t *testing.T) {
	f := salaryFilter(t)
	reqs := map[mode.Mode]*request.Request{
		mode.Keyword: mustRequest(t)(request.NewKeyword("engineer", request.WithFilter(f))),
		mode.Vector:  mustRequest(t)(request.NewVector("engineer", "DescriptionVector", request.WithFilter(f))),
		mode.Hybrid:  mustRequest(t)(request.NewHybrid("engineer", "engineer", "DescriptionVector", request.WithFilter(f))),
	}

	for m, req := range reqs {
		t.Run(string(m), func(t *testing.T) {
			backend := &mockBackend{}
			svc := New(backend, &mockEmbedder{vec: []float32{1}})
			if _, err := svc.Search(context.Background(), "jobs", req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if backend.lastQuery.Filter != f.String() {
				t.Errorf("filter = %q, want %q", backend.lastQuery.Filter, f.String())
			}
		})
	}
}

func TestVector_AtMostK_OrderPreserved(t *testing.T) {
	backend := &mockBackend{results: []result.Result{
		scored("a", 0.9), scored("b", 0.8), scored("c", 0.7), scored("d", 0.6), scored("e", 0.5),
	}}
	svc := New(backend, &mockEmbedder{vec: []float32{1}})

	req := mustRequest(t)(request.NewVector("q", "DescriptionVector", request.WithK(3)))
	results, err := svc.Vector(context.Background(), "jobs", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	prev := 2.0
	for i, r := range results {
		s, ok := r.Score()
		if !ok {
			t.Fatalf("result %d has no score", i)
		}
		if s > prev {
			t.Errorf("result %d: score %f increased over %f", i, s, prev)
		}
		prev = s
	}
	if id, _ := results[0].String("Id"); id != "a" {
		t.Errorf("first result = %q, want a", id)
	}
}

func TestVector_EmbedError(t *testing.T) {
	backend := &mockBackend{}
	embed := &mockEmbedder{err: fmt.Errorf("embed: %w", domain.ErrEmbedding)}
	svc := New(backend, embed)

	req := mustRequest(t)(request.NewVector("q", "DescriptionVector"))
	_, err := svc.Vector(context.Background(), "jobs", req)
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if backend.calls != 0 {
		t.Error("backend must not be called when embedding fails")
	}
}

func TestVector_NoEmbedder(t *testing.T) {
	svc := New(&mockBackend{}, nil)

	req := mustRequest(t)(request.NewVector("q", "DescriptionVector"))
	if _, err := svc.Vector(context.Background(), "jobs", req); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestKeyword_BackendErrorPropagates(t *testing.T) {
	remote := domain.NewRemoteError(domain.ErrQuerySyntax, "docs.search", 400, "", "Invalid expression")
	svc := New(&mockBackend{err: remote}, nil)

	req := mustRequest(t)(request.NewKeyword("*", request.WithRawFilter("Genres ?? 1")))
	_, err := svc.Keyword(context.Background(), "books", req)
	if !errors.Is(err, domain.ErrQuerySyntax) {
		t.Fatalf("expected ErrQuerySyntax, got %v", err)
	}
	if domain.RemoteStatus(err) != 400 {
		t.Errorf("remote status lost: %v", err)
	}
}

func TestModeMismatch(t *testing.T) {
	svc := New(&mockBackend{}, &mockEmbedder{vec: []float32{1}})
	req := mustRequest(t)(request.NewKeyword("x"))

	if _, err := svc.Vector(context.Background(), "jobs", req); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Errorf("Vector: expected ErrInvalidSchema, got %v", err)
	}
	if _, err := svc.Hybrid(context.Background(), "jobs", req); !errors.Is(err, domain.ErrInvalidSchema) {
		t.Errorf("Hybrid: expected ErrInvalidSchema, got %v", err)
	}
}

func TestLookupAndCount(t *testing.T) {
	backend := &mockBackend{doc: json.RawMessage(`{"Id":"5","Name":"Dune"}`), count: 10}
	svc := New(backend, nil)

	raw, err := svc.Lookup(context.Background(), "books", "5", "Id", "Name")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if string(raw) != `{"Id":"5","Name":"Dune"}` {
		t.Errorf("doc = %s", raw)
	}
	if backend.lastKey != "5" || len(backend.lastSel) != 2 {
		t.Errorf("lookup args = %q %v", backend.lastKey, backend.lastSel)
	}

	n, err := svc.Count(context.Background(), "books")
	if err != nil || n != 10 {
		t.Errorf("Count = %d, %v", n, err)
	}

	backend.doc = nil
	if _, err := svc.Lookup(context.Background(), "books", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVector_RecordsUsage(t *testing.T) {
	svc := New(&mockBackend{}, &mockEmbedder{vec: []float32{1}})
	ctx, usage := domain.WithQueryUsage(context.Background())

	req := mustRequest(t)(request.NewVector("q", "DescriptionVector"))
	if _, err := svc.Vector(ctx, "jobs", req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usage.Embedded() || usage.Tokens != 3 {
		t.Errorf("usage = %+v, want 3 tokens", *usage)
	}
}
