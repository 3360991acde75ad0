package provision

import (
	"context"

	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/domain/index"
)

// Backend defines the remote contract for named search resources.
// Every Put is an idempotent create-or-update; every Delete tolerates a
// missing resource.
type Backend interface {
	PutIndex(ctx context.Context, def index.Definition) error
	DeleteIndex(ctx context.Context, name string) error
	PutKnowledgeSource(ctx context.Context, ks agent.KnowledgeSource) error
	DeleteKnowledgeSource(ctx context.Context, name string) error
	PutAgent(ctx context.Context, a agent.KnowledgeAgent) error
	DeleteAgent(ctx context.Context, name string) error
}
