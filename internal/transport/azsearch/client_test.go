package azsearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/batch"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
	"github.com/kailas-cloud/searchlab/internal/domain/schema"
	"github.com/kailas-cloud/searchlab/internal/domain/schema/field"
	"github.com/kailas-cloud/searchlab/internal/domain/search/query"
)

// recorded is one request seen by the fake service.
type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	APIKey string
	Body   []byte
}

// fakeService records requests and replies with a canned status and body.
type fakeService struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		APIKey: r.Header.Get("api-key"),
		Body:   body,
	})
	status, reply := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

func (f *fakeService) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "no request recorded")
	return f.requests[len(f.requests)-1]
}

func newFake(t *testing.T, status int, body string) (*fakeService, *Client) {
	t.Helper()
	fake := &fakeService{status: status, body: body}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, New(srv.URL, "test-key")
}

func carDefinition(t *testing.T) index.Definition {
	t.Helper()
	s := schema.MustNew("car",
		field.MustNew("Id", field.String, field.Capabilities{Key: true, Filterable: true}),
		field.MustNew("Model", field.String, field.Capabilities{Searchable: true, Filterable: true, Sortable: true}),
		field.MustNew("Price", field.Double, field.Capabilities{Filterable: true, Sortable: true}),
		field.MustNew("Description", field.String, field.Capabilities{Searchable: true}),
		field.MustNewVector("DescriptionVector", 4, "v1-hnsw"),
	)
	d, err := index.New("cars-info", s,
		index.WithVectorSearch(index.VectorSearch{
			Algorithms: []index.Algorithm{{Name: "hnsw", Kind: index.HNSW, M: 4, EFConstruction: 400, EFSearch: 500, Metric: index.Cosine}},
			Profiles:   []index.Profile{{Name: "v1-hnsw", Algorithm: "hnsw"}},
		}),
		index.WithSemantic(index.Semantic{
			DefaultConfiguration: "semantic_config",
			Configurations: []index.SemanticConfig{{
				Name:          "semantic_config",
				TitleField:    "Model",
				ContentFields: []string{"Description", "Model"},
			}},
		}),
		index.WithSuggester("sg", "Model"),
	)
	require.NoError(t, err)
	return d
}

func TestPutIndex_WireFormat(t *testing.T) {
	fake, c := newFake(t, http.StatusCreated, `{}`)

	require.NoError(t, c.PutIndex(context.Background(), carDefinition(t)))

	req := fake.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/indexes/cars-info", req.Path)
	assert.Equal(t, []string{DefaultAPIVersion}, req.Query["api-version"])
	assert.Equal(t, "test-key", req.APIKey)

	var body struct {
		Name   string `json:"name"`
		Fields []struct {
			Name                string `json:"name"`
			Type                string `json:"type"`
			Key                 bool   `json:"key"`
			Dimensions          int    `json:"dimensions"`
			VectorSearchProfile string `json:"vectorSearchProfile"`
		} `json:"fields"`
		VectorSearch struct {
			Algorithms []struct {
				Kind           string `json:"kind"`
				HNSWParameters struct {
					M      int    `json:"m"`
					Metric string `json:"metric"`
				} `json:"hnswParameters"`
			} `json:"algorithms"`
		} `json:"vectorSearch"`
		Semantic struct {
			DefaultConfiguration string `json:"defaultConfiguration"`
			Configurations       []struct {
				PrioritizedFields struct {
					TitleField struct {
						FieldName string `json:"fieldName"`
					} `json:"titleField"`
					PrioritizedContentFields []struct {
						FieldName string `json:"fieldName"`
					} `json:"prioritizedContentFields"`
				} `json:"prioritizedFields"`
			} `json:"configurations"`
		} `json:"semantic"`
		Suggesters []struct {
			Name         string   `json:"name"`
			SearchMode   string   `json:"searchMode"`
			SourceFields []string `json:"sourceFields"`
		} `json:"suggesters"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &body))

	assert.Equal(t, "cars-info", body.Name)
	require.Len(t, body.Fields, 5)
	assert.True(t, body.Fields[0].Key)
	assert.Equal(t, "Collection(Edm.Single)", body.Fields[4].Type)
	assert.Equal(t, 4, body.Fields[4].Dimensions)
	assert.Equal(t, "v1-hnsw", body.Fields[4].VectorSearchProfile)

	require.Len(t, body.VectorSearch.Algorithms, 1)
	assert.Equal(t, "hnsw", body.VectorSearch.Algorithms[0].Kind)
	assert.Equal(t, 4, body.VectorSearch.Algorithms[0].HNSWParameters.M)
	assert.Equal(t, "cosine", body.VectorSearch.Algorithms[0].HNSWParameters.Metric)

	assert.Equal(t, "semantic_config", body.Semantic.DefaultConfiguration)
	require.Len(t, body.Semantic.Configurations, 1)
	assert.Equal(t, "Model", body.Semantic.Configurations[0].PrioritizedFields.TitleField.FieldName)
	assert.Len(t, body.Semantic.Configurations[0].PrioritizedFields.PrioritizedContentFields, 2)

	require.Len(t, body.Suggesters, 1)
	assert.Equal(t, "analyzingInfixMatching", body.Suggesters[0].SearchMode)
	assert.Equal(t, []string{"Model"}, body.Suggesters[0].SourceFields)
}

func TestPutIndex_SameBodyOnRepeat(t *testing.T) {
	fake, c := newFake(t, http.StatusNoContent, ``)
	def := carDefinition(t)

	require.NoError(t, c.PutIndex(context.Background(), def))
	first := fake.last(t).Body
	require.NoError(t, c.PutIndex(context.Background(), def))

	assert.JSONEq(t, string(first), string(fake.last(t).Body))
}

func TestPutIndex_Rejected(t *testing.T) {
	_, c := newFake(t, http.StatusBadRequest,
		`{"error":{"code":"OperationNotAllowed","message":"Existing field 'Id' cannot be changed."}}`)

	err := c.PutIndex(context.Background(), carDefinition(t))
	require.ErrorIs(t, err, domain.ErrIndexProvisioning)

	var re *domain.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "OperationNotAllowed", re.Code)
	assert.Equal(t, "Existing field 'Id' cannot be changed.", re.Message)
}

func TestPutKnowledgeSourceAndAgent(t *testing.T) {
	fake, c := newFake(t, http.StatusOK, `{}`)
	ctx := context.Background()

	require.NoError(t, c.PutKnowledgeSource(ctx, agent.KnowledgeSource{
		Name:             "car-info-knowledge-source",
		IndexName:        "cars-info",
		SourceDataSelect: []string{"Id", "Model", "Price", "Description"},
	}))
	req := fake.last(t)
	assert.Equal(t, "/knowledgesources/car-info-knowledge-source", req.Path)
	assert.JSONEq(t, `{
		"name": "car-info-knowledge-source",
		"kind": "searchIndex",
		"searchIndexParameters": {"searchIndexName": "cars-info", "sourceDataSelect": "Id,Model,Price,Description"}
	}`, string(req.Body))

	threshold := 1.8
	require.NoError(t, c.PutAgent(ctx, agent.KnowledgeAgent{
		Name: "car-info-knowledge-agent",
		Models: []agent.ModelBinding{{
			Kind: agent.AzureOpenAI, ResourceURI: "https://aoai.example", DeploymentID: "gpt-4.1-mini", ModelName: "gpt-4.1-mini",
		}},
		KnowledgeSources: []agent.SourceRef{{
			Name: "car-info-knowledge-source", IncludeReferences: true, IncludeReferenceSourceData: true, RerankerThreshold: &threshold,
		}},
		Output: agent.Output{Modality: agent.AnswerSynthesis, IncludeActivity: true},
	}))
	req = fake.last(t)
	assert.Equal(t, "/agents/car-info-knowledge-agent", req.Path)
	assert.JSONEq(t, `{
		"name": "car-info-knowledge-agent",
		"models": [{"kind": "azureOpenAI", "azureOpenAIParameters": {
			"resourceUri": "https://aoai.example", "deploymentId": "gpt-4.1-mini", "modelName": "gpt-4.1-mini"}}],
		"knowledgeSources": [{"name": "car-info-knowledge-source", "includeReferences": true,
			"includeReferenceSourceData": true, "rerankerThreshold": 1.8}],
		"outputConfiguration": {"modality": "answerSynthesis", "includeActivity": true}
	}`, string(req.Body))
}

func TestDelete_NotFoundIsSuccess(t *testing.T) {
	fake, c := newFake(t, http.StatusNotFound, `{"error":{"code":"ResourceNotFound","message":"missing"}}`)
	ctx := context.Background()

	require.NoError(t, c.DeleteAgent(ctx, "a"))
	require.NoError(t, c.DeleteKnowledgeSource(ctx, "ks"))
	require.NoError(t, c.DeleteIndex(ctx, "books"))
	assert.Equal(t, http.MethodDelete, fake.last(t).Method)
	assert.Equal(t, "/indexes/books", fake.last(t).Path)
}

func TestDelete_OtherErrorsPropagate(t *testing.T) {
	_, c := newFake(t, http.StatusForbidden, `{"error":{"message":"forbidden"}}`)

	err := c.DeleteIndex(context.Background(), "books")
	require.ErrorIs(t, err, domain.ErrIndexProvisioning)
	assert.Equal(t, http.StatusForbidden, domain.RemoteStatus(err))
}

func TestUpload_PartialReport(t *testing.T) {
	fake, c := newFake(t, http.StatusMultiStatus, `{"value":[
		{"key":"1","status":true,"errorMessage":null,"statusCode":201},
		{"key":"2","status":false,"errorMessage":"Document is malformed","statusCode":400}
	]}`)

	report, err := c.Upload(context.Background(), "books", []map[string]any{
		{"id": "1", "name": "Dune"},
		{"id": "2", "name": "Broken"},
	})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "/indexes/books/docs/index", req.Path)
	var body struct {
		Value []map[string]any `json:"value"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &body))
	require.Len(t, body.Value, 2)
	assert.Equal(t, "upload", body.Value[0]["@search.action"])
	assert.Equal(t, "Dune", body.Value[0]["name"])

	assert.Equal(t, 1, report.Succeeded())
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "2", failed[0].Key())
	assert.Equal(t, batch.StatusError, failed[0].Status())
	assert.Equal(t, "Document is malformed", failed[0].Message())
	assert.ErrorIs(t, report.Err(), domain.ErrPartialUpload)
}

func TestUpload_DoesNotMutateInput(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `{"value":[{"key":"1","status":true,"statusCode":200}]}`)
	doc := map[string]any{"id": "1"}

	_, err := c.Upload(context.Background(), "books", []map[string]any{doc})
	require.NoError(t, err)
	assert.NotContains(t, doc, "@search.action")
}

func TestUpload_Empty(t *testing.T) {
	fake, c := newFake(t, http.StatusOK, `{}`)

	report, err := c.Upload(context.Background(), "books", nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, fake.requests)
}

func TestUpload_ResultCountMismatch(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `{"value":[]}`)

	_, err := c.Upload(context.Background(), "books", []map[string]any{{"id": "1"}})
	require.ErrorIs(t, err, domain.ErrResponseShape)
}

func TestSearch_WireFormat(t *testing.T) {
	fake, c := newFake(t, http.StatusOK, `{"value":[
		{"@search.score":0.91,"id":"3","name":"Senior AI Engineer","salary":150000},
		{"@search.score":0.84,"id":"1","name":"ML Engineer","salary":130000}
	]}`)

	results, err := c.Search(context.Background(), "jobs", query.Query{
		Filter:  "salary gt 125000",
		Top:     3,
		Select:  []string{"id", "name", "salary"},
		OrderBy: []string{"salary desc", "name asc"},
		VectorQueries: []query.VectorQuery{{
			Vector: []float32{0.5, -0.25},
			K:      3,
			Fields: []string{"descriptionVector"},
		}},
	})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/indexes/jobs/docs/search", req.Path)
	assert.JSONEq(t, `{
		"filter": "salary gt 125000",
		"orderby": "salary desc,name asc",
		"top": 3,
		"select": "id,name,salary",
		"vectorQueries": [{"kind": "vector", "vector": [0.5, -0.25], "k": 3, "fields": "descriptionVector"}]
	}`, string(req.Body))

	require.Len(t, results, 2)
	score, ok := results[0].Score()
	require.True(t, ok)
	assert.InDelta(t, 0.91, score, 1e-9)
	name, _ := results[1].String("name")
	assert.Equal(t, "ML Engineer", name)
}

func TestSearch_SyntaxError(t *testing.T) {
	_, c := newFake(t, http.StatusBadRequest,
		`{"error":{"code":"","message":"Invalid expression: Syntax error at position 7 in 'genres ?? x'."}}`)

	_, err := c.Search(context.Background(), "books", query.Query{Search: "*", Filter: "genres ?? x"})
	require.ErrorIs(t, err, domain.ErrQuerySyntax)
	assert.Contains(t, err.Error(), "Syntax error at position 7")
}

func TestSearch_ServerError(t *testing.T) {
	_, c := newFake(t, http.StatusServiceUnavailable, `upstream unavailable`)

	_, err := c.Search(context.Background(), "books", query.Query{Search: "*"})
	require.ErrorIs(t, err, domain.ErrRetrieval)
	assert.Equal(t, http.StatusServiceUnavailable, domain.RemoteStatus(err))
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestSearch_MalformedBody(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `{"value":`)

	_, err := c.Search(context.Background(), "books", query.Query{Search: "*"})
	require.ErrorIs(t, err, domain.ErrResponseShape)
}

func TestLookup(t *testing.T) {
	fake, c := newFake(t, http.StatusOK, `{"id":"7","name":"Dune","pageCount":412}`)

	raw, err := c.Lookup(context.Background(), "books", "7", []string{"id", "name", "pageCount"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","name":"Dune","pageCount":412}`, string(raw))

	req := fake.last(t)
	assert.Equal(t, "/indexes/books/docs/7", req.Path)
	assert.Equal(t, []string{"id,name,pageCount"}, req.Query["$select"])
}

func TestLookup_NotFound(t *testing.T) {
	_, c := newFake(t, http.StatusNotFound, ``)

	_, err := c.Lookup(context.Background(), "books", "missing", nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCount(t *testing.T) {
	fake, c := newFake(t, http.StatusOK, "\ufeff10")

	n, err := c.Count(context.Background(), "books")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "/indexes/books/docs/$count", fake.last(t).Path)
}

func TestCount_NotANumber(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `ten`)

	_, err := c.Count(context.Background(), "books")
	require.ErrorIs(t, err, domain.ErrResponseShape)
}

func TestServiceStats(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `{"counters":{
		"documentCount":{"usage":23,"quota":null},
		"indexesCount":{"usage":3,"quota":15},
		"storageSize":{"usage":4096,"quota":null}
	}}`)

	stats, err := c.ServiceStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServiceStats{DocumentCount: 23, IndexCount: 3, StorageBytes: 4096}, stats)
	require.NoError(t, c.HealthCheck(context.Background()))
}

func TestRetrieve(t *testing.T) {
	fake, c := newFake(t, http.StatusOK, `{
		"response": [{"role":"assistant","content":[{"type":"text","text":"The Model S Plaid is fast [ref_id:0]."}]}],
		"activity": [
			{"type":"modelQueryPlanning","id":0,"inputTokens":1200,"outputTokens":40},
			{"type":"searchIndex","id":1,"knowledgeSourceName":"car-info-knowledge-source",
			 "searchIndexArguments":{"search":"Tesla Model S"},"count":2}
		],
		"references": [
			{"type":"searchIndex","id":"0","activitySource":1,"docKey":"4","rerankerScore":2.9,
			 "sourceData":{"Id":"4","Model":"Tesla Model S Plaid","Price":89990}},
			{"type":"somethingNew","id":"9"}
		]
	}`)

	conv := agent.NewConversation("Answer about cars.")
	resp, err := c.Retrieve(context.Background(), "car-info-knowledge-agent", conv.Ask("Tell me about the Tesla Model S"))
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "/agents/car-info-knowledge-agent/retrieve", req.Path)
	assert.JSONEq(t, `{"messages":[
		{"role":"system","content":[{"type":"text","text":"Answer about cars."}]},
		{"role":"user","content":[{"type":"text","text":"Tell me about the Tesla Model S"}]}
	]}`, string(req.Body))

	text, err := resp.AnswerText()
	require.NoError(t, err)
	assert.Equal(t, "The Model S Plaid is fast [ref_id:0].", text)

	refs := resp.SearchIndexReferences()
	require.Len(t, refs, 1)
	assert.Equal(t, "4", refs[0].DocKey)
	require.Len(t, resp.References, 2)
	assert.Equal(t, "somethingNew", resp.References[1].ReferenceType())
	require.Len(t, resp.Activity, 2)
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		key      string
	}{
		{"missing endpoint", "", "k"},
		{"missing key", "https://example.search.windows.net", ""},
		{"relative endpoint", "example.search.windows.net", "k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.endpoint, tt.key).Search(context.Background(), "books", query.Query{Search: "*"})
			require.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, "k").Count(context.Background(), "books")
	require.ErrorIs(t, err, domain.ErrRetrieval)
}

func TestCanceled(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `{"value":[]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "books", query.Query{Search: "*"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestAPIVersionOption(t *testing.T) {
	fake := &fakeService{body: `{"value":[]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(srv.URL+"/", "k", WithAPIVersion("2024-07-01"))
	_, err := c.Search(context.Background(), "books", query.Query{Search: "*"})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "/indexes/books/docs/search", req.Path)
	assert.Equal(t, []string{"2024-07-01"}, req.Query["api-version"])
	assert.False(t, strings.Contains(string(req.Body), "vectorQueries"))
}

func TestRateLimitOption(t *testing.T) {
	fake := &fakeService{body: `{"value":[]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := New(srv.URL, "k", WithRateLimit(0.01, 1))
	_, err := c.Search(context.Background(), "books", query.Query{Search: "*"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, "books", query.Query{Search: "*"})
	require.ErrorIs(t, err, domain.ErrRetrieval)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.requests, 1)
}

func TestRateLimitOption_Disabled(t *testing.T) {
	_, c := newFake(t, http.StatusOK, `{"value":[]}`)
	c = New(c.endpoint, "k", WithRateLimit(0, 0))
	assert.Nil(t, c.limiter)
}
