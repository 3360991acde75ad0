package health

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component or a demo index is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search service is unavailable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates an index that has not been provisioned yet.
	CheckMissing CheckResult = "missing"
	// CheckSkipped indicates a check not run because the search service is down.
	CheckSkipped CheckResult = "skipped"
)

const (
	checkSearch    = "search"
	checkEmbedding = "embedding"
	indexPrefix    = "index:"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	search    SearchChecker
	embedding EmbeddingChecker
	counter   IndexCounter
	indexes   []string
}

// Option configures the Service.
type Option func(*Service)

// WithIndexes adds a check per index name, reported as "index:<name>".
func WithIndexes(counter IndexCounter, names ...string) Option {
	return func(s *Service) {
		s.counter = counter
		s.indexes = append(s.indexes, names...)
	}
}

// New creates a Service. embedding can be nil.
func New(search SearchChecker, embedding EmbeddingChecker, opts ...Option) *Service {
	s := &Service{search: search, embedding: embedding}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check queries the search service first. Embedding and index checks then run
// concurrently; they are reported as skipped when the search service is down.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, 2+len(s.indexes))

	searchErr := s.search.HealthCheck(ctx)
	if searchErr != nil {
		log.Warn("health check failed", zap.String("check", checkSearch), zap.Error(searchErr))
		checks[checkSearch] = CheckError
	} else {
		checks[checkSearch] = CheckOK
	}

	var mu sync.Mutex
	set := func(name string, r CheckResult) {
		mu.Lock()
		checks[name] = r
		mu.Unlock()
	}

	var g errgroup.Group
	if s.embedding != nil {
		g.Go(func() error {
			err := s.embedding.HealthCheck(ctx)
			if err != nil {
				log.Warn("health check failed", zap.String("check", checkEmbedding), zap.Error(err))
			}
			set(checkEmbedding, resultOf(err))
			return nil
		})
	}
	if s.counter != nil {
		for _, name := range s.indexes {
			if searchErr != nil {
				set(indexPrefix+name, CheckSkipped)
				continue
			}
			g.Go(func() error {
				_, err := s.counter.Count(ctx, name)
				r := indexResult(err)
				if r == CheckError {
					log.Warn("health check failed", zap.String("check", indexPrefix+name), zap.Error(err))
				}
				set(indexPrefix+name, r)
				return nil
			})
		}
	}
	_ = g.Wait() // checks record failures instead of returning them

	return Report{Status: aggregate(checks), Checks: checks}
}

func resultOf(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}

func indexResult(err error) CheckResult {
	switch {
	case err == nil:
		return CheckOK
	case errors.Is(err, domain.ErrNotFound), domain.RemoteStatus(err) == http.StatusNotFound:
		return CheckMissing
	default:
		return CheckError
	}
}

func aggregate(checks map[string]CheckResult) Status {
	if checks[checkSearch] == CheckError {
		return Unhealthy
	}
	for _, r := range checks {
		if r != CheckOK {
			return Degraded
		}
	}
	return Healthy
}
