package agentic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/domain/agent"
	"github.com/kailas-cloud/searchlab/internal/logger"
)

// Answer is a synthesized agent answer ready for display.
type Answer struct {
	// Text has every known citation marker replaced by its display name.
	Text       string
	RawText    string
	References []agent.Reference
	Activity   []agent.Activity
}

// Service asks questions of one knowledge agent.
type Service struct {
	retriever    Retriever
	agentName    string
	displayField string
}

// New creates an agentic retrieval service. displayField names the source
// data field used to render citations, e.g. "Model".
func New(retriever Retriever, agentName, displayField string) *Service {
	return &Service{retriever: retriever, agentName: agentName, displayField: displayField}
}

// AgentName returns the knowledge agent this service talks to.
func (s *Service) AgentName() string { return s.agentName }

// Ask sends question on the conversation thread and records the answer so
// follow-up questions carry context. A response without answer text is an
// error wrapping domain.ErrResponseShape.
func (s *Service) Ask(ctx context.Context, conv *agent.Conversation, question string) (Answer, error) {
	if question == "" {
		return Answer{}, fmt.Errorf("ask %s: question is required", s.agentName)
	}

	ctx = logger.With(ctx, zap.String("agent", s.agentName))
	resp, err := s.retriever.Retrieve(ctx, s.agentName, conv.Ask(question))
	if err != nil {
		return Answer{}, fmt.Errorf("ask %s: %w", s.agentName, err)
	}
	logActivity(logger.FromContext(ctx), resp.Activity)

	text, err := resp.AnswerText()
	if err != nil {
		return Answer{}, fmt.Errorf("ask %s: %w", s.agentName, err)
	}
	conv.Record(question, resp)

	names := agent.DisplayNames(resp.References, s.displayField)
	return Answer{
		Text:       agent.SubstituteCitations(text, names),
		RawText:    text,
		References: resp.References,
		Activity:   resp.Activity,
	}, nil
}

func logActivity(log *zap.Logger, activity []agent.Activity) {
	for _, a := range activity {
		fields := []zap.Field{zap.String("step", a.ActivityType())}
		switch v := a.(type) {
		case agent.QueryPlanningActivity:
			fields = append(fields, zap.Int("input_tokens", v.InputTokens), zap.Int("output_tokens", v.OutputTokens))
		case agent.SearchIndexActivity:
			fields = append(fields,
				zap.String("knowledge_source", v.KnowledgeSourceName),
				zap.String("query", v.Query),
				zap.Int("count", v.Count),
			)
		case agent.RerankerActivity:
			fields = append(fields, zap.Int("input_tokens", v.InputTokens))
		case agent.AnswerSynthesisActivity:
			fields = append(fields, zap.Int("input_tokens", v.InputTokens), zap.Int("output_tokens", v.OutputTokens))
		}
		log.Debug("agent activity", fields...)
	}
}
