package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/catalog"
	"github.com/kailas-cloud/searchlab/internal/config"
	"github.com/kailas-cloud/searchlab/internal/console"
	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
	logpkg "github.com/kailas-cloud/searchlab/internal/logger"
	"github.com/kailas-cloud/searchlab/internal/metrics"
	"github.com/kailas-cloud/searchlab/internal/transport/azsearch"
	openaiEmb "github.com/kailas-cloud/searchlab/internal/transport/openai"
	agenticuc "github.com/kailas-cloud/searchlab/internal/usecase/agentic"
	embeddinguc "github.com/kailas-cloud/searchlab/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/searchlab/internal/usecase/health"
	"github.com/kailas-cloud/searchlab/internal/usecase/provision"
	searchuc "github.com/kailas-cloud/searchlab/internal/usecase/search"
	"github.com/kailas-cloud/searchlab/internal/usecase/seed"
)

// Source data fields used to render citations.
const (
	carDisplayField = "Model"
	jobDisplayField = "Name"
)

// globalOptions are the persistent root flags.
type globalOptions struct {
	env      string
	logLevel string
}

// app is the composition root shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *azsearch.Client
	embedder domain.Embedder
	out      *console.Printer
}

// appLoader builds the app for a command run. Tests swap it for a fake-backed one.
type appLoader func(opts globalOptions, out io.Writer) (*app, error)

func loadApp(opts globalOptions, out io.Writer) (*app, error) {
	env := opts.env
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRemoteMetrics()

	client := azsearch.New(cfg.Search.Endpoint, cfg.Search.APIKey,
		azsearch.WithAPIVersion(cfg.Search.APIVersion),
		azsearch.WithTimeout(time.Duration(cfg.Search.TimeoutSec)*time.Second),
		azsearch.WithRateLimit(cfg.Search.MaxRPS, cfg.Search.MaxBurst),
		azsearch.WithLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		embedder: buildEmbedder(cfg.Embedding, logger),
		out:      console.New(out),
	}, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIType:        cfg.APIType,
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		APIVersion:     cfg.APIVersion,
		Model:          cfg.Model,
		Deployment:     cfg.Deployment,
		Dimensions:     cfg.Dimensions,
		EncodingFormat: cfg.EncodingFormat,
		Timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:         logger,
	})
	return embeddinguc.NewInstrumentedEmbedder(base, base.Provider(), base.Model(), logger)
}

func (a *app) sync() { _ = a.logger.Sync() }

func (a *app) vectorParams() catalog.VectorParams {
	return catalog.VectorParamsFromConfig(a.cfg.Indexes, a.cfg.Embedding.Dimensions)
}

func (a *app) provisioner() *provision.Service {
	return provision.New(a.client, a.logger)
}

func (a *app) seeder() *seed.Service {
	return seed.New(a.client, a.embedder, a.logger).WithAllowPartial(a.cfg.Upload.AllowPartial)
}

func (a *app) searcher() *searchuc.Service {
	return searchuc.New(a.client, a.embedder)
}

func (a *app) agentic() *agenticuc.Service {
	return agenticuc.New(a.client, a.cfg.Agent.Name, carDisplayField)
}

func (a *app) jobsAgentic() *agenticuc.Service {
	return agenticuc.New(a.client, a.cfg.JobsAgent.Name, jobDisplayField)
}

func (a *app) health() *healthuc.Service {
	// Pass a nil interface, not a typed nil, when the embedder cannot be checked.
	var emb healthuc.EmbeddingChecker
	if hc, ok := a.embedder.(healthuc.EmbeddingChecker); ok {
		emb = hc
	}
	idx := a.cfg.Indexes
	return healthuc.New(a.client, emb, healthuc.WithIndexes(a.client, idx.Books, idx.Jobs, idx.Cars))
}

func modelBinding(c config.AgentConfig) agent.ModelBinding {
	return agent.ModelBinding{
		Kind:         agent.AzureOpenAI,
		ResourceURI:  c.ResourceURI,
		DeploymentID: c.Deployment,
		ModelName:    c.ModelName,
		APIKey:       c.APIKey,
	}
}

// queryVectorizer lets the service embed agent query plans with the same
// deployment the seeder embeds documents with.
func (a *app) queryVectorizer() index.Vectorizer {
	return index.Vectorizer{
		Name:         catalog.VectorizerName,
		ResourceURI:  a.cfg.JobsAgent.ResourceURI,
		DeploymentID: a.cfg.Embedding.Deployment,
		ModelName:    a.cfg.Embedding.Model,
		APIKey:       a.cfg.JobsAgent.APIKey,
	}
}

// seedIndex provisions def and uploads docs, reporting the batch outcome.
func (a *app) seedIndex(ctx context.Context, def index.Definition, docs []domain.Document) error {
	if err := a.provisioner().EnsureIndex(ctx, def); err != nil {
		return err
	}
	a.out.Heading(fmt.Sprintf("Index %q created or updated", def.Name()))

	report, err := a.seeder().Seed(ctx, def.Name(), docs)
	if len(report.Results) > 0 {
		a.out.Upload(report)
	}
	return err
}
