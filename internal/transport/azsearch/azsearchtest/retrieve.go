package azsearchtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxReferences = 3

type retrieveBody struct {
	Messages []json.RawMessage `json:"messages"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (s *Service) retrieveAnswer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequestBody", err.Error())
		return
	}
	var body retrieveBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "InvalidRequestBody", "messages are required")
		return
	}

	s.mu.Lock()
	s.retrieve = append(s.retrieve, raw)
	_, ok := s.agents[name]
	answer := s.Answer
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "ResourceNotFound", "agent "+name+" was not found")
		return
	}

	if answer != nil {
		resp, err := answer(name, body.Messages)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "InternalServerError", err.Error())
			return
		}
		writeRaw(w, http.StatusOK, resp)
		return
	}

	resp, err := s.defaultAnswer(name, body.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type agentDef struct {
	KnowledgeSources []struct {
		Name string `json:"name"`
	} `json:"knowledgeSources"`
}

type sourceDef struct {
	SearchIndexParameters struct {
		SearchIndexName  string `json:"searchIndexName"`
		SourceDataSelect string `json:"sourceDataSelect"`
	} `json:"searchIndexParameters"`
}

// defaultAnswer runs the last user question as an OR query over every term
// against the agent's first knowledge source and cites the best matches.
func (s *Service) defaultAnswer(agentName string, messages []json.RawMessage) (map[string]any, error) {
	question := ""
	for _, raw := range messages {
		var m wireMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		if m.Role != "user" {
			continue
		}
		for _, c := range m.Content {
			if c.Type == "text" {
				question = c.Text
			}
		}
	}
	if question == "" {
		return nil, fmt.Errorf("no user question")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var a agentDef
	if err := json.Unmarshal(s.agents[agentName], &a); err != nil || len(a.KnowledgeSources) == 0 {
		return nil, fmt.Errorf("agent %s has no knowledge sources", agentName)
	}
	srcName := a.KnowledgeSources[0].Name
	var src sourceDef
	if err := json.Unmarshal(s.sources[srcName], &src); err != nil {
		return nil, fmt.Errorf("knowledge source %s was not found", srcName)
	}
	idx, ok := s.indexes[src.SearchIndexParameters.SearchIndexName]
	if !ok {
		return nil, fmt.Errorf("index %s was not found", src.SearchIndexParameters.SearchIndexName)
	}

	hits := idx.textHits(idx.order, strings.Join(tokenize(question), " OR "))
	if len(hits) > maxReferences {
		hits = hits[:maxReferences]
	}
	selectFields := splitList(src.SearchIndexParameters.SourceDataSelect)

	refs := make([]map[string]any, 0, len(hits))
	cites := make([]string, 0, len(hits))
	for i, h := range hits {
		id := fmt.Sprint(i)
		refs = append(refs, map[string]any{
			"type":           "searchIndex",
			"id":             id,
			"activitySource": 2,
			"docKey":         h.key,
			"rerankerScore":  h.score,
			"sourceData":     project(idx.docs[h.key], selectFields),
		})
		cites = append(cites, "[ref_id:"+id+"]")
	}

	text := "I don't know."
	if len(cites) > 0 {
		text = "Relevant matches: " + strings.Join(cites, ", ") + "."
	}

	return map[string]any{
		"response": []map[string]any{{
			"role":    "assistant",
			"content": []map[string]string{{"type": "text", "text": text}},
		}},
		"references": refs,
		"activity": []map[string]any{
			{"type": "modelQueryPlanning", "id": 0, "inputTokens": 100, "outputTokens": 20, "elapsedMs": 5},
			{"type": "searchIndex", "id": 1, "knowledgeSourceName": srcName, "count": len(hits),
				"searchIndexArguments": map[string]string{"search": question}},
			{"type": "semanticReranker", "id": 2, "inputTokens": 50},
			{"type": "modelAnswerSynthesis", "id": 3, "inputTokens": 200, "outputTokens": 40, "elapsedMs": 7},
		},
	}, nil
}
