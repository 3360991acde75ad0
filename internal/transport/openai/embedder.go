package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/metrics"
)

// API flavors.
const (
	APITypeOpenAI = "openai"
	APITypeAzure  = "azure"
)

// Embedder is an embedding provider using the OpenAI or Azure OpenAI API.
type Embedder struct {
	client     *openai.Client
	apiKey     string
	baseURL    string
	model      openai.EmbeddingModel
	dimensions int
	encoding   openai.EmbeddingEncodingFormat
	user       string
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIType    string // openai (default) or azure
	APIKey     string
	BaseURL    string
	APIVersion string // azure only
	Model      string
	Deployment string // azure only; defaults to Model
	Dimensions int
	// EncodingFormat is "float" (default) or "base64". Base64 payloads are decoded by the client.
	EncodingFormat string
	Timeout        time.Duration
	User           string
	Provider       string
	Logger         *zap.Logger
}

// NewEmbedder creates an embedding provider. Missing credentials are reported on first use.
func NewEmbedder(cfg *Config) *Embedder {
	var clientCfg openai.ClientConfig
	if cfg.APIType == APITypeAzure {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Deployment
		if deployment == "" {
			deployment = cfg.Model
		}
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = newHTTPClient(cfg.Timeout)
	}

	encoding := openai.EmbeddingEncodingFormatFloat
	if cfg.EncodingFormat == string(openai.EmbeddingEncodingFormatBase64) {
		encoding = openai.EmbeddingEncodingFormatBase64
	}

	provider := cfg.Provider
	if provider == "" {
		provider = cfg.APIType
	}
	if provider == "" {
		provider = APITypeOpenAI
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		encoding:   encoding,
		user:       cfg.User,
		provider:   provider,
		logger:     logger,
	}
}

// Provider returns the provider label used in metrics.
func (e *Embedder) Provider() string { return e.provider }

// Model returns the embedding model name.
func (e *Embedder) Model() string { return string(e.model) }

// Embed implements domain.Embedder with a single-text request.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.embed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. One remote call; vectors are
// returned in input order. Empty input makes no call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return e.embed(ctx, texts)
}

func (e *Embedder) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if e.apiKey == "" {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: embedding api key is not set", domain.ErrConfiguration)
	}
	if e.provider == APITypeAzure && e.baseURL == "" {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: azure embedding endpoint is not set", domain.ErrConfiguration)
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: e.encoding,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	model := string(e.model)
	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, errorType(err)).Inc()
		return domain.BatchEmbeddingResult{}, parseAPIError(err)
	}

	embeddings, err := e.collect(resp.Data, len(texts))
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, model, "bad_response").Inc()
		return domain.BatchEmbeddingResult{}, err
	}

	// Record success metrics
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())
	metrics.EmbeddingTextsTotal.WithLabelValues(e.provider, model).Add(float64(len(texts)))

	totalTokens := resp.Usage.TotalTokens
	promptTokens := resp.Usage.PromptTokens
	if totalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(promptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(totalTokens))
	}

	e.logger.Debug("embedded texts",
		zap.String("provider", e.provider),
		zap.String("model", model),
		zap.Int("count", len(texts)),
		zap.Int("total_tokens", totalTokens),
		zap.Duration("duration", duration),
	)

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// collect orders response items by index and checks count and dimension.
func (e *Embedder) collect(data []openai.Embedding, want int) ([][]float32, error) {
	if len(data) != want {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrEmbedding, want, len(data))
	}

	sorted := make([]openai.Embedding, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	out := make([][]float32, want)
	for i, d := range sorted {
		if d.Index != i {
			return nil, fmt.Errorf("%w: unexpected vector index %d at position %d", domain.ErrEmbedding, d.Index, i)
		}
		if e.dimensions > 0 && len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrEmbedding, i, len(d.Embedding), e.dimensions)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if e.apiKey == "" {
		return fmt.Errorf("%w: embedding api key is not set", domain.ErrConfiguration)
	}
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors wrap domain.ErrEmbedding; transport errors keep their cause.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractDetail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return domain.NewRemoteError(domain.ErrEmbedding, "embed", reqErr.HTTPStatusCode, "", msg)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}
		return domain.NewRemoteError(domain.ErrEmbedding, "embed", apiErr.HTTPStatusCode, code, apiErr.Message)
	}

	return fmt.Errorf("embedding request failed: %w: %w", domain.ErrEmbedding, err)
}

func errorType(err error) string {
	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &apiErr), errors.As(err, &reqErr):
		return "api_error"
	}
	return "transport_error"
}

// extractDetail extracts a message from a non-OpenAI JSON error body
// ({"detail": "..."} or {"error": {"message": "..."}}).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}
