package azsearch

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/metrics"
)

// Retrieve sends the message thread to a knowledge agent and decodes its answer,
// references and activity. One request, no streaming.
func (c *Client) Retrieve(ctx context.Context, agentName string, messages []agent.Message) (agent.RetrievalResponse, error) {
	var resp agent.RetrievalResponse
	if _, err := c.do(ctx, call{
		op:       opRetrieve,
		method:   http.MethodPost,
		path:     "/agents/" + url.PathEscape(agentName) + "/retrieve",
		body:     retrieveRequestDTO{Messages: messages},
		resource: agentName,
	}, &resp); err != nil {
		return agent.RetrievalResponse{}, err
	}

	recordActivityTokens(agentName, resp.Activity)
	return resp, nil
}

func recordActivityTokens(agentName string, activity []agent.Activity) {
	add := func(step, kind string, n int) {
		if n > 0 {
			metrics.AgentTokensTotal.WithLabelValues(agentName, step, kind).Add(float64(n))
		}
	}
	for _, a := range activity {
		switch v := a.(type) {
		case agent.QueryPlanningActivity:
			add(v.ActivityType(), "input", v.InputTokens)
			add(v.ActivityType(), "output", v.OutputTokens)
		case agent.RerankerActivity:
			add(v.ActivityType(), "input", v.InputTokens)
		case agent.AnswerSynthesisActivity:
			add(v.ActivityType(), "input", v.InputTokens)
			add(v.ActivityType(), "output", v.OutputTokens)
		}
	}
}
