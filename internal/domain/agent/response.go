package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchlab/internal/domain"
)

// Reference is a retrieved passage cited by the answer.
// Implementations: SearchIndexReference, UnknownReference.
type Reference interface {
	RefID() string
	ReferenceType() string
}

// SearchIndexReference points at a document in a search index.
type SearchIndexReference struct {
	ID             string
	ActivitySource int
	DocKey         string
	RerankerScore  *float64
	SourceData     map[string]any
}

// RefID implements Reference.
func (r SearchIndexReference) RefID() string { return r.ID }

// ReferenceType implements Reference.
func (SearchIndexReference) ReferenceType() string { return "searchIndex" }

// UnknownReference is a reference variant this client does not model.
type UnknownReference struct {
	Type string
	ID   string
	Raw  json.RawMessage
}

// RefID implements Reference.
func (r UnknownReference) RefID() string { return r.ID }

// ReferenceType implements Reference.
func (r UnknownReference) ReferenceType() string { return r.Type }

// Activity is one step of the agent's retrieval plan. Consumed for logging only.
// Implementations: QueryPlanningActivity, SearchIndexActivity,
// RerankerActivity, AnswerSynthesisActivity, UnknownActivity.
type Activity interface {
	ActivityType() string
}

// QueryPlanningActivity is the model call that decomposed the question.
type QueryPlanningActivity struct {
	ID           int
	InputTokens  int
	OutputTokens int
	ElapsedMs    int
}

// ActivityType implements Activity.
func (QueryPlanningActivity) ActivityType() string { return "modelQueryPlanning" }

// SearchIndexActivity is one subquery against a knowledge source.
type SearchIndexActivity struct {
	ID                  int
	KnowledgeSourceName string
	Query               string
	Count               int
	ElapsedMs           int
}

// ActivityType implements Activity.
func (SearchIndexActivity) ActivityType() string { return "searchIndex" }

// RerankerActivity is the semantic reranking step.
type RerankerActivity struct {
	ID          int
	InputTokens int
}

// ActivityType implements Activity.
func (RerankerActivity) ActivityType() string { return "semanticReranker" }

// AnswerSynthesisActivity is the model call that wrote the answer.
type AnswerSynthesisActivity struct {
	ID           int
	InputTokens  int
	OutputTokens int
	ElapsedMs    int
}

// ActivityType implements Activity.
func (AnswerSynthesisActivity) ActivityType() string { return "modelAnswerSynthesis" }

// UnknownActivity is an activity variant this client does not model.
type UnknownActivity struct {
	Type string
	Raw  json.RawMessage
}

// ActivityType implements Activity.
func (u UnknownActivity) ActivityType() string { return u.Type }

// RetrievalResponse is a decoded agentic retrieval result.
type RetrievalResponse struct {
	Messages   []Message
	References []Reference
	Activity   []Activity
}

// AnswerText joins the text blocks of the assistant messages.
// A response without any text is a shape error.
func (r RetrievalResponse) AnswerText() (string, error) {
	var parts []string
	for _, m := range r.Messages {
		if m.Role != "" && m.Role != RoleAssistant {
			continue
		}
		parts = append(parts, m.Texts()...)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: agent answer has no text content", domain.ErrResponseShape)
	}
	return strings.Join(parts, "\n"), nil
}

// SearchIndexReferences returns the search index references in response order.
func (r RetrievalResponse) SearchIndexReferences() []SearchIndexReference {
	var out []SearchIndexReference
	for _, ref := range r.References {
		if s, ok := ref.(SearchIndexReference); ok {
			out = append(out, s)
		}
	}
	return out
}

type wireResponse struct {
	Response   []Message         `json:"response"`
	References []json.RawMessage `json:"references"`
	Activity   []json.RawMessage `json:"activity"`
}

type wireReference struct {
	Type           string         `json:"type"`
	ID             string         `json:"id"`
	ActivitySource int            `json:"activitySource"`
	DocKey         string         `json:"docKey"`
	RerankerScore  *float64       `json:"rerankerScore"`
	SourceData     map[string]any `json:"sourceData"`
}

type wireActivity struct {
	Type                 string `json:"type"`
	ID                   int    `json:"id"`
	InputTokens          int    `json:"inputTokens"`
	OutputTokens         int    `json:"outputTokens"`
	ElapsedMs            int    `json:"elapsedMs"`
	KnowledgeSourceName  string `json:"knowledgeSourceName"`
	Count                int    `json:"count"`
	SearchIndexArguments *struct {
		Search string `json:"search"`
	} `json:"searchIndexArguments"`
	Query *struct {
		Search string `json:"search"`
	} `json:"query"`
}

// UnmarshalJSON decodes the wire response into closed variant sets.
func (r *RetrievalResponse) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Messages = w.Response

	r.References = make([]Reference, 0, len(w.References))
	for i, raw := range w.References {
		ref, err := decodeReference(raw)
		if err != nil {
			return fmt.Errorf("reference %d: %w", i, err)
		}
		r.References = append(r.References, ref)
	}

	r.Activity = make([]Activity, 0, len(w.Activity))
	for i, raw := range w.Activity {
		a, err := decodeActivity(raw)
		if err != nil {
			return fmt.Errorf("activity %d: %w", i, err)
		}
		r.Activity = append(r.Activity, a)
	}
	return nil
}

// wireHead is the part every reference and activity shares. Variant fields
// are decoded only once the type is known, so an unmodeled variant whose
// fields clash with a modeled one still passes through.
type wireHead struct {
	Type string          `json:"type"`
	ID   json.RawMessage `json:"id"`
}

// lenientID renders a string or numeric id as text; anything else is "".
func lenientID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func decodeReference(raw json.RawMessage) (Reference, error) {
	var head wireHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	// Older service versions tag index references as "AzureSearchDoc".
	if head.Type != "searchIndex" && head.Type != "AzureSearchDoc" {
		return UnknownReference{Type: head.Type, ID: lenientID(head.ID), Raw: raw}, nil
	}

	var w wireReference
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return SearchIndexReference{
		ID:             w.ID,
		ActivitySource: w.ActivitySource,
		DocKey:         w.DocKey,
		RerankerScore:  w.RerankerScore,
		SourceData:     w.SourceData,
	}, nil
}

func decodeActivity(raw json.RawMessage) (Activity, error) {
	var head wireHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "modelQueryPlanning", "ModelQueryPlanning",
		"searchIndex", "AzureSearchQuery",
		"semanticReranker", "AzureSearchSemanticRanker",
		"modelAnswerSynthesis":
	default:
		return UnknownActivity{Type: head.Type, Raw: raw}, nil
	}

	var w wireActivity
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "modelQueryPlanning", "ModelQueryPlanning":
		return QueryPlanningActivity{ID: w.ID, InputTokens: w.InputTokens, OutputTokens: w.OutputTokens, ElapsedMs: w.ElapsedMs}, nil
	case "searchIndex", "AzureSearchQuery":
		a := SearchIndexActivity{ID: w.ID, KnowledgeSourceName: w.KnowledgeSourceName, Count: w.Count, ElapsedMs: w.ElapsedMs}
		switch {
		case w.SearchIndexArguments != nil:
			a.Query = w.SearchIndexArguments.Search
		case w.Query != nil:
			a.Query = w.Query.Search
		}
		return a, nil
	case "semanticReranker", "AzureSearchSemanticRanker":
		return RerankerActivity{ID: w.ID, InputTokens: w.InputTokens}, nil
	default:
		return AnswerSynthesisActivity{ID: w.ID, InputTokens: w.InputTokens, OutputTokens: w.OutputTokens, ElapsedMs: w.ElapsedMs}, nil
	}
}
