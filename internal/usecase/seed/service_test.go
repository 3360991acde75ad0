package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/batch"
)

// --- Mocks ---

type mockUploader struct {
	index  string
	docs   []map[string]any
	report func(docs []map[string]any) batch.Report
	err    error
}

func (m *mockUploader) Upload(_ context.Context, indexName string, docs []map[string]any) (batch.Report, error) {
	m.index, m.docs = indexName, docs
	if m.err != nil {
		return batch.Report{Index: indexName}, m.err
	}
	if m.report != nil {
		return m.report(docs), nil
	}
	r := batch.Report{Index: indexName}
	for _, d := range docs {
		r.Results = append(r.Results, batch.NewOK(d["Id"].(string), 201))
	}
	return r, nil
}

// mockEmbedder implements both Embed and BatchEmbed and counts calls.
type mockEmbedder struct {
	embedCalls int
	batchCalls int
	short      bool
	err        error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	return domain.EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 1}, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	n := len(texts)
	if m.short {
		n--
	}
	res := domain.BatchEmbeddingResult{TotalTokens: len(texts)}
	for i := 0; i < n; i++ {
		res.Embeddings = append(res.Embeddings, []float32{float32(i), 1})
	}
	return res, nil
}

func rejectFirst(docs []map[string]any) batch.Report {
	r := batch.Report{Index: "jobs"}
	for i, d := range docs {
		key := d["Id"].(string)
		if i == 0 {
			r.Results = append(r.Results, batch.NewError(key, 400, "bad document"))
			continue
		}
		r.Results = append(r.Results, batch.NewOK(key, 201))
	}
	return r
}

// --- Tests ---

func TestSeed_PlainDocuments(t *testing.T) {
	up := &mockUploader{}
	svc := New(up, nil, nil)

	report, err := svc.Seed(context.Background(), "books", catalog.Documents(catalog.SampleBooks()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.index != "books" {
		t.Errorf("expected index books, got %q", up.index)
	}
	if len(up.docs) != 10 {
		t.Errorf("expected 10 uploaded docs, got %d", len(up.docs))
	}
	if report.Succeeded() != 10 {
		t.Errorf("expected 10 succeeded, got %d", report.Succeeded())
	}
}

func TestSeed_EmbedsVectorDocumentsInOneCall(t *testing.T) {
	up := &mockUploader{}
	emb := &mockEmbedder{}
	svc := New(up, emb, nil)

	jobs := catalog.SampleJobs()
	if _, err := svc.Seed(context.Background(), "jobs", catalog.Documents(jobs)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.batchCalls != 1 || emb.embedCalls != 0 {
		t.Errorf("expected one batch call, got batch=%d single=%d", emb.batchCalls, emb.embedCalls)
	}
	for i, j := range jobs {
		if len(j.DescriptionVector) != 2 || j.DescriptionVector[0] != float32(i) {
			t.Errorf("job %s: unexpected vector %v", j.ID, j.DescriptionVector)
		}
		if _, ok := up.docs[i][catalog.VectorField]; !ok {
			t.Errorf("job %s: vector not uploaded", j.ID)
		}
	}
}

func TestSeed_VectorDocumentsWithoutEmbedder(t *testing.T) {
	up := &mockUploader{}
	svc := New(up, nil, nil)

	_, err := svc.Seed(context.Background(), "jobs", catalog.Documents(catalog.SampleJobs()))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if up.docs != nil {
		t.Error("nothing must be uploaded")
	}
}

func TestSeed_EmbeddingCountMismatch(t *testing.T) {
	up := &mockUploader{}
	svc := New(up, &mockEmbedder{short: true}, nil)

	_, err := svc.Seed(context.Background(), "jobs", catalog.Documents(catalog.SampleJobs()))
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestSeed_EmbeddingError(t *testing.T) {
	svc := New(&mockUploader{}, &mockEmbedder{err: domain.ErrEmbedding}, nil)

	_, err := svc.Seed(context.Background(), "jobs", catalog.Documents(catalog.SampleJobs()))
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestSeed_UploadError(t *testing.T) {
	up := &mockUploader{err: domain.NewRemoteError(domain.ErrRetrieval, "docs.upload", 503, "", "unavailable")}
	svc := New(up, nil, nil)

	_, err := svc.Seed(context.Background(), "books", catalog.Documents(catalog.SampleBooks()))
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestSeed_PartialIsErrorByDefault(t *testing.T) {
	up := &mockUploader{report: rejectFirst}
	svc := New(up, &mockEmbedder{}, nil)

	report, err := svc.Seed(context.Background(), "jobs", catalog.Documents(catalog.SampleJobs()))
	if !errors.Is(err, domain.ErrPartialUpload) {
		t.Fatalf("expected ErrPartialUpload, got %v", err)
	}
	if len(report.Failed()) != 1 || report.Failed()[0].Key() != "1" {
		t.Errorf("expected key 1 rejected, got %+v", report.Failed())
	}
}

func TestSeed_PartialAllowed(t *testing.T) {
	up := &mockUploader{report: rejectFirst}
	svc := New(up, &mockEmbedder{}, nil).WithAllowPartial(true)

	report, err := svc.Seed(context.Background(), "jobs", catalog.Documents(catalog.SampleJobs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded() != 4 {
		t.Errorf("expected 4 succeeded, got %d", report.Succeeded())
	}
}

func TestSeed_Empty(t *testing.T) {
	up := &mockUploader{}
	emb := &mockEmbedder{}
	svc := New(up, emb, nil)

	if _, err := svc.Seed(context.Background(), "books", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.batchCalls != 0 {
		t.Error("embedder must not be called for an empty seed")
	}
}
