package provision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
)

// Resources names everything Cleanup removes. Empty names are skipped.
type Resources struct {
	Agent           string
	KnowledgeSource string
	Indexes         []string
}

// Service upserts and removes remote search resources. It keeps no local
// state: resources are referenced by name only.
type Service struct {
	backend Backend
	logger  *zap.Logger
}

// New creates a provisioning service.
func New(backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, logger: logger}
}

// EnsureIndex creates the index or updates it in place. Safe to call before every run.
func (s *Service) EnsureIndex(ctx context.Context, def index.Definition) error {
	if def.Name() == "" {
		return fmt.Errorf("ensure index: %w: definition is not initialized", domain.ErrInvalidSchema)
	}
	if err := s.backend.PutIndex(ctx, def); err != nil {
		return fmt.Errorf("ensure index %s: %w", def.Name(), err)
	}
	s.logger.Info("index ensured",
		zap.String("index", def.Name()),
		zap.Int("fields", len(def.Schema().Fields())),
		zap.Bool("vector", def.VectorSearch() != nil),
		zap.Bool("semantic", def.Semantic() != nil),
	)
	return nil
}

// EnsureKnowledgeSource creates or updates a knowledge source over an existing index.
func (s *Service) EnsureKnowledgeSource(ctx context.Context, ks agent.KnowledgeSource) error {
	if err := ks.Validate(); err != nil {
		return fmt.Errorf("ensure knowledge source: %w: %w", domain.ErrInvalidSchema, err)
	}
	if err := s.backend.PutKnowledgeSource(ctx, ks); err != nil {
		return fmt.Errorf("ensure knowledge source %s: %w", ks.Name, err)
	}
	s.logger.Info("knowledge source ensured",
		zap.String("knowledge_source", ks.Name),
		zap.String("index", ks.IndexName),
		zap.Strings("source_fields", ks.SourceDataSelect),
	)
	return nil
}

// EnsureKnowledgeAgent creates or updates a knowledge agent. Its knowledge
// sources must already exist.
func (s *Service) EnsureKnowledgeAgent(ctx context.Context, a agent.KnowledgeAgent) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("ensure knowledge agent: %w: %w", domain.ErrInvalidSchema, err)
	}
	if err := s.backend.PutAgent(ctx, a); err != nil {
		return fmt.Errorf("ensure knowledge agent %s: %w", a.Name, err)
	}

	sources := make([]string, len(a.KnowledgeSources))
	for i, ks := range a.KnowledgeSources {
		sources[i] = ks.Name
	}
	s.logger.Info("knowledge agent ensured",
		zap.String("agent", a.Name),
		zap.Strings("knowledge_sources", sources),
		zap.String("modality", string(a.Output.Modality)),
	)
	return nil
}

// Cleanup deletes the agent, then the knowledge source, then the indexes,
// so nothing is removed while a dependent still references it.
// Missing resources count as deleted.
func (s *Service) Cleanup(ctx context.Context, r Resources) error {
	if r.Agent != "" {
		if err := s.backend.DeleteAgent(ctx, r.Agent); err != nil {
			return fmt.Errorf("cleanup agent %s: %w", r.Agent, err)
		}
		s.logger.Info("knowledge agent deleted", zap.String("agent", r.Agent))
	}
	if r.KnowledgeSource != "" {
		if err := s.backend.DeleteKnowledgeSource(ctx, r.KnowledgeSource); err != nil {
			return fmt.Errorf("cleanup knowledge source %s: %w", r.KnowledgeSource, err)
		}
		s.logger.Info("knowledge source deleted", zap.String("knowledge_source", r.KnowledgeSource))
	}
	for _, name := range r.Indexes {
		if name == "" {
			continue
		}
		if err := s.backend.DeleteIndex(ctx, name); err != nil {
			return fmt.Errorf("cleanup index %s: %w", name, err)
		}
		s.logger.Info("index deleted", zap.String("index", name))
	}
	return nil
}
