package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/batch"
)

// Service embeds and uploads sample documents.
type Service struct {
	upload       Uploader
	embed        Embedder
	logger       *zap.Logger
	allowPartial bool
}

// New creates a seeding service. embed may be nil when only plain documents are seeded.
func New(upload Uploader, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{upload: upload, embed: embed, logger: logger}
}

// WithAllowPartial downgrades per-document rejections to a logged warning.
func (s *Service) WithAllowPartial(allow bool) *Service {
	s.allowPartial = allow
	return s
}

// Seed uploads docs to indexName in a single batch. Vector documents are
// re-embedded first with one batch embedding call. Any rejected document
// fails the seed with domain.ErrPartialUpload unless partial uploads are allowed;
// the report is returned either way. Nothing is rolled back.
func (s *Service) Seed(ctx context.Context, indexName string, docs []domain.Document) (batch.Report, error) {
	if err := s.vectorize(ctx, indexName, docs); err != nil {
		return batch.Report{Index: indexName}, err
	}

	fields := make([]map[string]any, len(docs))
	for i, d := range docs {
		fields[i] = d.Fields()
	}

	report, err := s.upload.Upload(ctx, indexName, fields)
	if err != nil {
		return report, fmt.Errorf("upload to %s: %w", indexName, err)
	}

	if err := report.Err(); err != nil {
		if !s.allowPartial {
			return report, err
		}
		s.logger.Warn("partial upload",
			zap.String("index", indexName),
			zap.Int("succeeded", report.Succeeded()),
			zap.Int("failed", len(report.Failed())),
			zap.Error(err),
		)
		return report, nil
	}

	s.logger.Info("documents uploaded",
		zap.String("index", indexName),
		zap.Int("count", report.Succeeded()),
	)
	return report, nil
}

func (s *Service) vectorize(ctx context.Context, indexName string, docs []domain.Document) error {
	var vecDocs []domain.VectorDocument
	for _, d := range docs {
		if vd, ok := d.(domain.VectorDocument); ok {
			vecDocs = append(vecDocs, vd)
		}
	}
	if len(vecDocs) == 0 {
		return nil
	}
	if s.embed == nil {
		return fmt.Errorf("seed %s: %w: no embedder for vector documents", indexName, domain.ErrConfiguration)
	}

	res, err := domain.EmbedDocuments(ctx, s.embed, vecDocs)
	if err != nil {
		return fmt.Errorf("seed %s: %w", indexName, err)
	}
	s.logger.Debug("documents embedded",
		zap.String("index", indexName),
		zap.Int("count", len(vecDocs)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return nil
}
