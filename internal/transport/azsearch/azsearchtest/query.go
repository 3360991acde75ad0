package azsearchtest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
)

const (
	defaultTop = 50
	rrfK       = 60
)

type searchBody struct {
	Search        string `json:"search"`
	QueryType     string `json:"queryType"`
	Filter        string `json:"filter"`
	OrderBy       string `json:"orderby"`
	Top           *int   `json:"top"`
	Select        string `json:"select"`
	VectorQueries []struct {
		Kind   string    `json:"kind"`
		Vector []float64 `json:"vector"`
		K      int       `json:"k"`
		Fields string    `json:"fields"`
	} `json:"vectorQueries"`
}

type hit struct {
	key   string
	score float64
}

func (s *Service) search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequestBody", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[chi.URLParam(r, "index")]
	if !ok {
		writeError(w, http.StatusNotFound, "ResourceNotFound", "index was not found")
		return
	}

	pred, err := parseFilter(body.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequestParameter", "Invalid expression: "+err.Error())
		return
	}
	order, err := parseOrderBy(body.OrderBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequestParameter", "Invalid expression: "+err.Error())
		return
	}

	var candidates []string
	for _, key := range idx.order {
		if pred(idx.docs[key]) {
			candidates = append(candidates, key)
		}
	}

	var lists [][]hit
	if body.Search != "" || len(body.VectorQueries) == 0 {
		lists = append(lists, idx.textHits(candidates, body.Search))
	}
	for _, vq := range body.VectorQueries {
		if vq.Kind != "vector" || vq.K <= 0 {
			writeError(w, http.StatusBadRequest, "InvalidRequestParameter", "vector query requires kind vector and k > 0")
			return
		}
		lists = append(lists, idx.vectorHits(candidates, vq.Fields, vq.Vector, vq.K))
	}
	hits := lists[0]
	if len(lists) > 1 {
		hits = fuse(lists)
	}
	if len(order) > 0 {
		sort.SliceStable(hits, func(i, j int) bool {
			return order.less(idx.docs[hits[i].key], idx.docs[hits[j].key])
		})
	}

	top := defaultTop
	if body.Top != nil {
		top = *body.Top
	}
	if len(hits) > top {
		hits = hits[:top]
	}

	selectFields := splitList(body.Select)
	value := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		doc := project(idx.docs[h.key], selectFields)
		doc["@search.score"] = h.score
		value = append(value, doc)
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": value})
}

// textHits scores documents by the number of matched query terms. "*" and
// the empty query match everything with a constant score. Groups separated
// by " OR " match independently; all terms of a group must be present.
func (idx *indexState) textHits(candidates []string, text string) []hit {
	text = strings.TrimSpace(text)
	hits := make([]hit, 0, len(candidates))
	if text == "" || text == "*" {
		for _, key := range candidates {
			hits = append(hits, hit{key: key, score: 1})
		}
		return hits
	}

	var groups [][]string
	for _, g := range strings.Split(text, " OR ") {
		if terms := tokenize(g); len(terms) > 0 {
			groups = append(groups, terms)
		}
	}
	for _, key := range candidates {
		tokens := idx.searchableTokens(idx.docs[key])
		score := 0.0
		for _, g := range groups {
			matched := 0
			for _, t := range g {
				if tokens[t] {
					matched++
				}
			}
			if matched == len(g) {
				score += float64(matched)
			}
		}
		if score > 0 {
			hits = append(hits, hit{key: key, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	return hits
}

func (idx *indexState) searchableTokens(doc map[string]any) map[string]bool {
	tokens := make(map[string]bool)
	for _, f := range idx.fields {
		if !f.Searchable || f.Dimensions > 0 {
			continue
		}
		if s, ok := doc[f.Name].(string); ok {
			for _, t := range tokenize(s) {
				tokens[t] = true
			}
		}
	}
	return tokens
}

func (idx *indexState) vectorHits(candidates []string, fields string, q []float64, k int) []hit {
	var hits []hit
	for _, key := range candidates {
		best := math.Inf(-1)
		for _, f := range splitList(fields) {
			vec, ok := toFloats(idx.docs[key][f])
			if !ok || len(vec) != len(q) {
				continue
			}
			best = math.Max(best, cosine(q, vec))
		}
		if !math.IsInf(best, -1) {
			hits = append(hits, hit{key: key, score: best})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// fuse merges ranked lists with reciprocal rank fusion.
func fuse(lists [][]hit) []hit {
	scores := make(map[string]float64)
	var order []string
	for _, list := range lists {
		for rank, h := range list {
			if _, seen := scores[h.key]; !seen {
				order = append(order, h.key)
			}
			scores[h.key] += 1.0 / float64(rrfK+rank+1)
		}
	}
	hits := make([]hit, len(order))
	for i, key := range order {
		hits[i] = hit{key: key, score: scores[key]}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	return hits
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func toFloats(v any) ([]float64, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// --- filter ---

var (
	isMatchRe    = regexp.MustCompile(`^search\.ismatch\('((?:[^']|'')*)',\s*'([A-Za-z][A-Za-z0-9_]*)'\)$`)
	comparisonRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s+(eq|ne|gt|ge|lt|le)\s+(.+)$`)
)

type predicate func(doc map[string]any) bool

func parseFilter(expr string) (predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return func(map[string]any) bool { return true }, nil
	}
	var preds []predicate
	for _, clause := range strings.Split(expr, " and ") {
		p, err := parseClause(unwrap(strings.TrimSpace(clause)))
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return func(doc map[string]any) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}, nil
}

func unwrap(s string) string {
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func parseClause(c string) (predicate, error) {
	if m := isMatchRe.FindStringSubmatch(c); m != nil {
		terms := tokenize(strings.ReplaceAll(m[1], "''", "'"))
		fieldName := m[2]
		return func(doc map[string]any) bool {
			s, _ := doc[fieldName].(string)
			tokens := make(map[string]bool)
			for _, t := range tokenize(s) {
				tokens[t] = true
			}
			for _, t := range terms {
				if !tokens[t] {
					return false
				}
			}
			return len(terms) > 0
		}, nil
	}

	m := comparisonRe.FindStringSubmatch(c)
	if m == nil {
		return nil, fmt.Errorf("unsupported clause %q", c)
	}
	fieldName, op, literal := m[1], m[2], strings.TrimSpace(m[3])

	if strings.HasPrefix(literal, "'") {
		if !strings.HasSuffix(literal, "'") || len(literal) < 2 {
			return nil, fmt.Errorf("unterminated string literal in %q", c)
		}
		want := strings.ReplaceAll(literal[1:len(literal)-1], "''", "'")
		if op != "eq" && op != "ne" {
			return nil, fmt.Errorf("operator %s is not supported for strings", op)
		}
		return func(doc map[string]any) bool {
			got, _ := doc[fieldName].(string)
			return (got == want) == (op == "eq")
		}, nil
	}

	want, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid literal %q", literal)
	}
	return func(doc map[string]any) bool {
		got, ok := doc[fieldName].(float64)
		if !ok {
			return false
		}
		switch op {
		case "eq":
			return got == want
		case "ne":
			return got != want
		case "gt":
			return got > want
		case "ge":
			return got >= want
		case "lt":
			return got < want
		default:
			return got <= want
		}
	}, nil
}

// --- order ---

type orderClause struct {
	field string
	desc  bool
}

type ordering []orderClause

func parseOrderBy(s string) (ordering, error) {
	var out ordering
	for _, part := range splitList(s) {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 1:
			out = append(out, orderClause{field: fields[0]})
		case len(fields) == 2 && (fields[1] == "asc" || fields[1] == "desc"):
			out = append(out, orderClause{field: fields[0], desc: fields[1] == "desc"})
		default:
			return nil, fmt.Errorf("invalid order clause %q", part)
		}
	}
	return out, nil
}

func (o ordering) less(a, b map[string]any) bool {
	for _, c := range o {
		cmp := compare(a[c.field], b[c.field])
		if cmp == 0 {
			continue
		}
		if c.desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func compare(a, b any) int {
	switch x := a.(type) {
	case float64:
		y, _ := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y, _ := b.(string)
		return strings.Compare(x, y)
	}
	return 0
}
