// Package azsearchtest provides an in-memory search service speaking the
// subset of the REST API the azsearch client uses. It evaluates a small
// query dialect: "*" or OR-separated term groups, conjunctions of
// search.ismatch and numeric comparisons, field ordering and exhaustive
// cosine kNN.
package azsearchtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/searchlab/internal/transport/azsearch"
)

// APIKey is the admin key the fake accepts.
const APIKey = "test-admin-key"

type fieldDef struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Key        bool   `json:"key"`
	Searchable bool   `json:"searchable"`
	Dimensions int    `json:"dimensions"`
}

type vectorSearchDef struct {
	Profiles []struct {
		Name       string `json:"name"`
		Vectorizer string `json:"vectorizer"`
	} `json:"profiles"`
	Vectorizers []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	} `json:"vectorizers"`
}

type indexState struct {
	fields      []fieldDef
	vectorizers []string
	key         string
	order  []string
	docs   map[string]map[string]any
}

type injected struct {
	status  int
	code    string
	message string
}

// Service is the in-memory search service. Safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	indexes map[string]*indexState
	sources map[string]json.RawMessage
	agents  map[string]json.RawMessage
	fail    []injected
	retrieve []json.RawMessage

	// Answer builds the agent response for a retrieve call. When nil the
	// fake answers with the best keyword matches of the agent's source.
	Answer func(agentName string, messages []json.RawMessage) (json.RawMessage, error)

	srv *httptest.Server
}

// New starts a fake service and returns it with a client bound to it.
// The server is closed when the test ends.
func New(t testing.TB, opts ...azsearch.Option) (*Service, *azsearch.Client) {
	t.Helper()
	s := &Service{
		indexes: make(map[string]*indexState),
		sources: make(map[string]json.RawMessage),
		agents:  make(map[string]json.RawMessage),
	}
	s.srv = httptest.NewServer(s.router())
	t.Cleanup(s.srv.Close)
	return s, azsearch.New(s.srv.URL, APIKey, opts...)
}

// URL returns the base URL of the fake.
func (s *Service) URL() string { return s.srv.URL }

// FailNext makes the next request fail with the given status and message.
// Calls queue up in order.
func (s *Service) FailNext(status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = append(s.fail, injected{status: status, code: code, message: message})
}

// HasIndex reports whether an index exists.
func (s *Service) HasIndex(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.indexes[name]
	return ok
}

// Vectorizers returns the vectorizer names declared on an index.
func (s *Service) Vectorizers(indexName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[indexName]; ok {
		return append([]string(nil), idx.vectorizers...)
	}
	return nil
}

// HasKnowledgeSource reports whether a knowledge source exists.
func (s *Service) HasKnowledgeSource(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sources[name]
	return ok
}

// HasAgent reports whether a knowledge agent exists.
func (s *Service) HasAgent(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.agents[name]
	return ok
}

// Document returns a stored document by key.
func (s *Service) Document(indexName, key string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[indexName]
	if !ok {
		return nil, false
	}
	d, ok := idx.docs[key]
	return d, ok
}

// RetrieveRequests returns the bodies of every retrieve call received.
func (s *Service) RetrieveRequests() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]json.RawMessage, len(s.retrieve))
	copy(out, s.retrieve)
	return out
}

func (s *Service) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authenticate)
	r.Use(s.injectFailure)

	r.Get("/servicestats", s.stats)
	r.Route("/indexes/{index}", func(r chi.Router) {
		r.Put("/", s.putIndex)
		r.Delete("/", s.deleteIndex)
		r.Post("/docs/index", s.upload)
		r.Post("/docs/search", s.search)
		r.Get("/docs/$count", s.count)
		r.Get("/docs/{key}", s.lookup)
	})
	r.Put("/knowledgesources/{name}", s.putResource(s.sources))
	r.Delete("/knowledgesources/{name}", s.deleteResource(s.sources, "knowledge source"))
	r.Put("/agents/{name}", s.putResource(s.agents))
	r.Delete("/agents/{name}", s.deleteResource(s.agents, "agent"))
	r.Post("/agents/{name}/retrieve", s.retrieveAnswer)
	return r
}

func (s *Service) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != APIKey {
			writeError(w, http.StatusForbidden, "Forbidden", "invalid api key")
			return
		}
		if r.URL.Query().Get("api-version") == "" {
			writeError(w, http.StatusBadRequest, "MissingApiVersion", "api-version is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var f *injected
		if len(s.fail) > 0 {
			f = &s.fail[0]
			s.fail = s.fail[1:]
		}
		s.mu.Unlock()
		if f != nil {
			writeError(w, f.status, f.code, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) putIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	var body struct {
		Name         string           `json:"name"`
		Fields       []fieldDef       `json:"fields"`
		VectorSearch *vectorSearchDef `json:"vectorSearch,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequestBody", err.Error())
		return
	}
	if body.Name != name {
		writeError(w, http.StatusBadRequest, "InvalidIndexName", "index name in body does not match the URL")
		return
	}
	key := ""
	for _, f := range body.Fields {
		if f.Key {
			key = f.Name
		}
	}
	if key == "" {
		writeError(w, http.StatusBadRequest, "InvalidIndexDefinition", "an index must have a key field")
		return
	}
	vectorizers, err := body.VectorSearch.vectorizerNames()
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidIndexDefinition", err.Error())
		return
	}

	s.mu.Lock()
	idx, exists := s.indexes[name]
	if !exists {
		idx = &indexState{docs: make(map[string]map[string]any)}
		s.indexes[name] = idx
	}
	idx.fields, idx.key, idx.vectorizers = body.Fields, key, vectorizers
	s.mu.Unlock()

	if exists {
		writeJSON(w, http.StatusOK, body)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

// vectorizerNames lists the declared vectorizers and rejects profiles bound
// to an undeclared one.
func (v *vectorSearchDef) vectorizerNames() ([]string, error) {
	if v == nil {
		return nil, nil
	}
	declared := make(map[string]bool, len(v.Vectorizers))
	names := make([]string, 0, len(v.Vectorizers))
	for _, z := range v.Vectorizers {
		if z.Kind != "azureOpenAI" {
			return nil, fmt.Errorf("vectorizer %s: unsupported kind %q", z.Name, z.Kind)
		}
		declared[z.Name] = true
		names = append(names, z.Name)
	}
	for _, p := range v.Profiles {
		if p.Vectorizer != "" && !declared[p.Vectorizer] {
			return nil, fmt.Errorf("profile %s references unknown vectorizer %s", p.Name, p.Vectorizer)
		}
	}
	return names, nil
}

func (s *Service) deleteIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	s.mu.Lock()
	_, ok := s.indexes[name]
	delete(s.indexes, name)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "ResourceNotFound", "index "+name+" was not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) putResource(store map[string]json.RawMessage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(raw) {
			writeError(w, http.StatusBadRequest, "InvalidRequestBody", "body is not valid JSON")
			return
		}
		s.mu.Lock()
		_, exists := store[chi.URLParam(r, "name")]
		store[chi.URLParam(r, "name")] = raw
		s.mu.Unlock()
		if exists {
			writeRaw(w, http.StatusOK, raw)
			return
		}
		writeRaw(w, http.StatusCreated, raw)
	}
}

func (s *Service) deleteResource(store map[string]json.RawMessage, what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		s.mu.Lock()
		_, ok := store[name]
		delete(store, name)
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "ResourceNotFound", what+" "+name+" was not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type indexingResult struct {
	Key          string  `json:"key"`
	Status       bool    `json:"status"`
	ErrorMessage *string `json:"errorMessage"`
	StatusCode   int     `json:"statusCode"`
}

func (s *Service) upload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequestBody", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[chi.URLParam(r, "index")]
	if !ok {
		writeError(w, http.StatusNotFound, "ResourceNotFound", "index was not found")
		return
	}

	results := make([]indexingResult, 0, len(body.Value))
	status := http.StatusOK
	for _, doc := range body.Value {
		key, _ := doc[idx.key].(string)
		if msg := idx.validate(doc, key); msg != "" {
			m := msg
			results = append(results, indexingResult{Key: key, ErrorMessage: &m, StatusCode: http.StatusBadRequest})
			status = http.StatusMultiStatus
			continue
		}
		stored := make(map[string]any, len(doc))
		for k, v := range doc {
			if !strings.HasPrefix(k, "@") {
				stored[k] = v
			}
		}
		code := http.StatusOK
		if _, exists := idx.docs[key]; !exists {
			idx.order = append(idx.order, key)
			code = http.StatusCreated
		}
		idx.docs[key] = stored
		results = append(results, indexingResult{Key: key, Status: true, StatusCode: code})
	}
	writeJSON(w, status, map[string]any{"value": results})
}

func (idx *indexState) validate(doc map[string]any, key string) string {
	if key == "" {
		return fmt.Sprintf("document is missing the key field %q", idx.key)
	}
	if action, _ := doc["@search.action"].(string); action != "upload" {
		return fmt.Sprintf("unsupported action %q", action)
	}
	known := make(map[string]fieldDef, len(idx.fields))
	for _, f := range idx.fields {
		known[f.Name] = f
	}
	for name, v := range doc {
		if strings.HasPrefix(name, "@") {
			continue
		}
		f, ok := known[name]
		if !ok {
			return fmt.Sprintf("the property %q does not exist on the index", name)
		}
		if f.Dimensions > 0 {
			if vec, ok := v.([]any); !ok || len(vec) != f.Dimensions {
				return fmt.Sprintf("vector field %q must have %d dimensions", name, f.Dimensions)
			}
		}
	}
	return ""
}

func (s *Service) lookup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[chi.URLParam(r, "index")]
	if !ok {
		writeError(w, http.StatusNotFound, "ResourceNotFound", "index was not found")
		return
	}
	doc, ok := idx.docs[chi.URLParam(r, "key")]
	if !ok {
		writeError(w, http.StatusNotFound, "", "document was not found")
		return
	}
	writeJSON(w, http.StatusOK, project(doc, splitList(r.URL.Query().Get("$select"))))
}

func (s *Service) count(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	idx, ok := s.indexes[chi.URLParam(r, "index")]
	n := 0
	if ok {
		n = len(idx.docs)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "ResourceNotFound", "index was not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "\ufeff%d", n)
}

func (s *Service) stats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	docs := 0
	for _, idx := range s.indexes {
		docs += len(idx.docs)
	}
	indexes := len(s.indexes)
	s.mu.Unlock()

	counter := func(n int) map[string]any { return map[string]any{"usage": n, "quota": nil} }
	writeJSON(w, http.StatusOK, map[string]any{
		"counters": map[string]any{
			"documentCount": counter(docs),
			"indexesCount":  counter(indexes),
			"storageSize":   counter(docs * 1024),
		},
	})
}

func project(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		out := make(map[string]any, len(doc))
		for k, v := range doc {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}
