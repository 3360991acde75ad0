// Package query holds the resolved, backend-ready form of a search request:
// text, filter and ordering already rendered, query vectors already embedded.
package query

// VectorQuery asks for the K nearest neighbors of Vector among Fields.
type VectorQuery struct {
	Vector []float32
	K      int
	Fields []string
}

// Query is one search call. Empty values are left to service defaults.
type Query struct {
	Search        string
	QueryType     string
	Filter        string
	OrderBy       []string
	Top           int
	Select        []string
	VectorQueries []VectorQuery
}

// HasVector reports whether the query carries at least one vector query.
func (q Query) HasVector() bool { return len(q.VectorQueries) > 0 }
