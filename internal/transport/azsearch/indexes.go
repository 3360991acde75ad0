package azsearch

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
)

// ServiceStats is the subset of service counters used for health and status output.
type ServiceStats struct {
	DocumentCount int64
	IndexCount    int64
	StorageBytes  int64
}

// PutIndex creates or updates an index definition in place.
func (c *Client) PutIndex(ctx context.Context, def index.Definition) error {
	_, err := c.do(ctx, call{
		op:       opPutIndex,
		method:   http.MethodPut,
		path:     "/indexes/" + url.PathEscape(def.Name()),
		body:     toIndexDTO(def),
		resource: def.Name(),
	}, nil)
	return err
}

// DeleteIndex removes an index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	return c.delete(ctx, opDeleteIndex, "/indexes/", name)
}

// PutKnowledgeSource creates or updates a search-index knowledge source.
func (c *Client) PutKnowledgeSource(ctx context.Context, ks agent.KnowledgeSource) error {
	_, err := c.do(ctx, call{
		op:       opPutSource,
		method:   http.MethodPut,
		path:     "/knowledgesources/" + url.PathEscape(ks.Name),
		body:     toKnowledgeSourceDTO(ks),
		resource: ks.Name,
	}, nil)
	return err
}

// DeleteKnowledgeSource removes a knowledge source. A missing source is not an error.
func (c *Client) DeleteKnowledgeSource(ctx context.Context, name string) error {
	return c.delete(ctx, opDeleteSource, "/knowledgesources/", name)
}

// PutAgent creates or updates a knowledge agent.
func (c *Client) PutAgent(ctx context.Context, a agent.KnowledgeAgent) error {
	_, err := c.do(ctx, call{
		op:       opPutAgent,
		method:   http.MethodPut,
		path:     "/agents/" + url.PathEscape(a.Name),
		body:     toAgentDTO(a),
		resource: a.Name,
	}, nil)
	return err
}

// DeleteAgent removes a knowledge agent. A missing agent is not an error.
func (c *Client) DeleteAgent(ctx context.Context, name string) error {
	return c.delete(ctx, opDeleteAgent, "/agents/", name)
}

func (c *Client) delete(ctx context.Context, op operation, prefix, name string) error {
	_, err := c.do(ctx, call{
		op:       op,
		method:   http.MethodDelete,
		path:     prefix + url.PathEscape(name),
		resource: name,
	}, nil)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// ServiceStats returns service-wide usage counters.
func (c *Client) ServiceStats(ctx context.Context) (ServiceStats, error) {
	var dto serviceStatsDTO
	if _, err := c.do(ctx, call{
		op:     opStats,
		method: http.MethodGet,
		path:   "/servicestats",
	}, &dto); err != nil {
		return ServiceStats{}, err
	}
	return ServiceStats{
		DocumentCount: dto.Counters.DocumentCount.Usage,
		IndexCount:    dto.Counters.IndexesCount.Usage,
		StorageBytes:  dto.Counters.StorageSize.Usage,
	}, nil
}

// HealthCheck verifies that the service is reachable with the configured key.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ServiceStats(ctx)
	return err
}
