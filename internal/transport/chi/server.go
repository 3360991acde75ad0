package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/search/mode"
	"github.com/kailas-cloud/searchlab/internal/domain/search/request"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
	"github.com/kailas-cloud/searchlab/internal/metrics"
	agenticuc "github.com/kailas-cloud/searchlab/internal/usecase/agentic"
	healthuc "github.com/kailas-cloud/searchlab/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchlab/internal/usecase/search"
)

const maxRetrieveBody = 1 << 16

var jobFields = []string{"Id", "Name", "Salary", "Description"}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Options configures the facade.
type Options struct {
	BooksIndex        string
	JobsIndex         string
	AgentInstructions string
	APIKeys           []string
}

// Server exposes the search scenarios over HTTP.
type Server struct {
	search        *searchuc.Service
	agentic       *agenticuc.Service
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. agentic may be nil, in which case
// POST /cars/retrieve answers with a configuration error.
func NewServer(
	search *searchuc.Service,
	agentic *agenticuc.Service,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:  search,
		agentic: agentic,
		health:  health,
		opts:    opts,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrQuerySyntax, http.StatusBadRequest, ErrorCodeQuerySyntax),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, ErrorCodeConfiguration),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, ErrorCodeEmbedding),
		sentinelHandler(domain.ErrRetrieval, http.StatusBadGateway, ErrorCodeUpstream),
		sentinelHandler(domain.ErrResponseShape, http.StatusBadGateway, ErrorCodeUpstream),
	}
	return s
}

// Handler builds the chi router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(APIKeyMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/books/search", s.SearchBooks)
	r.Get("/jobs/search", s.SearchJobs)
	r.Post("/cars/retrieve", s.RetrieveCars)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	return r
}

// SearchBooks handles GET /books/search. Without q every book matches.
func (s *Server) SearchBooks(w http.ResponseWriter, r *http.Request) {
	params, err := bindBookSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	text := deref(params.Q)
	if text == "" {
		text = request.MatchAll
	}
	opts := []request.Option{
		request.WithOrderBy(deref(params.OrderBy)...),
		request.WithSize(deref(params.Size)),
	}
	if f := deref(params.Filter); f != "" {
		opts = append(opts, request.WithRawFilter(f))
	}
	req, err := request.NewKeyword(text, opts...)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	results, err := s.search.Keyword(r.Context(), s.opts.BooksIndex, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]BookHit, 0, len(results))
	for i := range results {
		b, err := result.Decode[catalog.Book](results[i])
		if err != nil {
			s.handleDomainError(w, fmt.Errorf("%w: %w", domain.ErrResponseShape, err))
			return
		}
		items = append(items, BookHit{
			Score:     scoreOf(&results[i]),
			ID:        b.ID,
			Name:      b.Name,
			Author:    b.Author,
			PageCount: b.PageCount,
			Genres:    b.Genres,
		})
	}
	writeJSON(w, http.StatusOK, BookSearchResponse{Items: items, Total: len(items)})
}

// SearchJobs handles GET /jobs/search. mode is vector (default) or hybrid;
// vq is the text to embed and defaults to q.
func (s *Server) SearchJobs(w http.ResponseWriter, r *http.Request) {
	params, err := bindJobSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	req, err := jobRequest(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.WithQueryUsage(r.Context())
	results, err := s.search.Search(ctx, s.opts.JobsIndex, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]JobHit, 0, len(results))
	for i := range results {
		j, err := result.Decode[catalog.Job](results[i])
		if err != nil {
			s.handleDomainError(w, fmt.Errorf("%w: %w", domain.ErrResponseShape, err))
			return
		}
		items = append(items, JobHit{
			Score:       scoreOf(&results[i]),
			ID:          j.ID,
			Name:        j.Name,
			Salary:      j.Salary,
			Description: j.Description,
		})
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, JobSearchResponse{Mode: string(req.Mode()), Items: items, Total: len(items)})
}

func jobRequest(p JobSearchParams) (request.Request, error) {
	text, vectorText := deref(p.Q), deref(p.Vq)
	if vectorText == "" {
		vectorText = text
	}

	opts := []request.Option{
		request.WithK(deref(p.K)),
		request.WithSize(deref(p.Size)),
		request.WithSelect(jobFields...),
	}
	if f := deref(p.Filter); f != "" {
		opts = append(opts, request.WithRawFilter(f))
	}

	switch m := mode.Mode(deref(p.Mode)); m {
	case "", mode.Vector:
		return request.NewVector(vectorText, catalog.VectorField, opts...)
	case mode.Hybrid:
		return request.NewHybrid(text, vectorText, catalog.VectorField, opts...)
	default:
		return request.Request{}, fmt.Errorf("mode must be %q or %q, got %q", mode.Vector, mode.Hybrid, m)
	}
}

// RetrieveCars handles POST /cars/retrieve. Each request starts a new thread.
func (s *Server) RetrieveCars(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRetrieveBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "question is required")
		return
	}
	if s.agentic == nil {
		s.handleDomainError(w, fmt.Errorf("%w: knowledge agent is not configured", domain.ErrConfiguration))
		return
	}

	answer, err := s.agentic.Ask(r.Context(), agent.NewConversation(s.opts.AgentInstructions), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, retrieveResponse(answer))
}

func retrieveResponse(a agenticuc.Answer) RetrieveResponse {
	resp := RetrieveResponse{
		Answer:     a.Text,
		References: make([]RetrieveReference, 0, len(a.References)),
		Activity:   make([]RetrieveActivity, 0, len(a.Activity)),
	}
	for _, ref := range a.References {
		out := RetrieveReference{RefID: ref.RefID()}
		if sr, ok := ref.(agent.SearchIndexReference); ok {
			out.DocKey = sr.DocKey
			out.RerankerScore = sr.RerankerScore
			out.Model, _ = sr.SourceData["Model"].(string)
			if p, ok := sr.SourceData["Price"].(float64); ok {
				out.Price = &p
			}
		}
		resp.References = append(resp.References, out)
	}
	for _, act := range a.Activity {
		out := RetrieveActivity{Type: act.ActivityType()}
		switch v := act.(type) {
		case agent.QueryPlanningActivity:
			out.InputTokens, out.OutputTokens = v.InputTokens, v.OutputTokens
		case agent.SearchIndexActivity:
			out.Query, out.Count = v.Query, v.Count
		case agent.RerankerActivity:
			out.InputTokens = v.InputTokens
		case agent.AnswerSynthesisActivity:
			out.InputTokens, out.OutputTokens = v.InputTokens, v.OutputTokens
		}
		resp.Activity = append(resp.Activity, out)
	}
	return resp
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func scoreOf(r *result.Result) *float64 {
	if v, ok := r.Score(); ok {
		return &v
	}
	return nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.QueryUsage) {
	if usage.Embedded() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// clientMessage exposes the remote diagnostic for client-side mistakes and
// only the error kind otherwise.
func clientMessage(err, sentinel error, status int) string {
	var re *domain.RemoteError
	if status < http.StatusInternalServerError && errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return sentinel.Error()
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, clientMessage(err, sentinel, status))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
