package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Service annotation keys.
const (
	ScoreKey         = "@search.score"
	RerankerScoreKey = "@search.rerankerScore"
)

// Result is a single search hit. Scores are opaque and mode-specific;
// they are never normalized or compared across modes.
type Result struct {
	score         *float64
	rerankerScore *float64
	fields        map[string]any
	raw           json.RawMessage
}

// New creates a search result.
func New(score, rerankerScore *float64, fields map[string]any, raw json.RawMessage) Result {
	return Result{score: score, rerankerScore: rerankerScore, fields: fields, raw: raw}
}

// Parse decodes one hit object. Annotations ("@search.*", "@odata.*") are
// stripped from the field map; scores are extracted when present.
func Parse(raw json.RawMessage) (Result, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return Result{}, fmt.Errorf("decode hit: %w", err)
	}

	r := Result{fields: make(map[string]any, len(all)), raw: raw}
	for k, v := range all {
		switch {
		case k == ScoreKey:
			s, err := parseScore(v)
			if err != nil {
				return Result{}, fmt.Errorf("decode %s: %w", k, err)
			}
			r.score = s
		case k == RerankerScoreKey:
			s, err := parseScore(v)
			if err != nil {
				return Result{}, fmt.Errorf("decode %s: %w", k, err)
			}
			r.rerankerScore = s
		case strings.HasPrefix(k, "@"):
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return Result{}, fmt.Errorf("decode field %q: %w", k, err)
			}
			r.fields[k] = val
		}
	}
	return r, nil
}

func parseScore(v json.RawMessage) (*float64, error) {
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Score returns the relevance score when the service reported one.
func (r *Result) Score() (float64, bool) {
	if r.score == nil {
		return 0, false
	}
	return *r.score, true
}

// RerankerScore returns the semantic reranker score when present.
func (r *Result) RerankerScore() (float64, bool) {
	if r.rerankerScore == nil {
		return 0, false
	}
	return *r.rerankerScore, true
}

// Fields returns the document fields without service annotations.
func (r *Result) Fields() map[string]any { return r.fields }

// Raw returns the hit as received.
func (r *Result) Raw() json.RawMessage { return r.raw }

// String returns a string field.
func (r *Result) String(name string) (string, bool) {
	s, ok := r.fields[name].(string)
	return s, ok
}

// Float returns a numeric field.
func (r *Result) Float(name string) (float64, bool) {
	f, ok := r.fields[name].(float64)
	return f, ok
}

// Decode unmarshals the hit into a typed document.
func Decode[T any](r Result) (T, error) {
	var v T
	if len(r.raw) == 0 {
		return v, fmt.Errorf("result has no raw payload")
	}
	if err := json.Unmarshal(r.raw, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// DecodeAll decodes every hit, preserving order.
func DecodeAll[T any](rs []Result) ([]T, error) {
	out := make([]T, 0, len(rs))
	for i, r := range rs {
		v, err := Decode[T](r)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
