package agentic

import (
	"context"

	"github.com/kailas-cloud/searchlab/internal/domain/agent"
)

// Retriever sends a message thread to a knowledge agent.
type Retriever interface {
	Retrieve(ctx context.Context, agentName string, messages []agent.Message) (agent.RetrievalResponse, error)
}
