package request

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/searchlab/internal/domain/search/filter"
	"github.com/kailas-cloud/searchlab/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultSize    = 5
	MaxSize        = 1000
	MaxOrderBy     = 32
)

// MatchAll is the keyword text that matches every document.
const MatchAll = "*"

var orderByRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_/]*( (asc|desc))?$`)

// Request is a validated query. Exactly one shape per mode:
// keyword carries text, vector carries vector text and field,
// hybrid carries both.
type Request struct {
	searchMode  mode.Mode
	text        string
	vectorText  string
	vectorField string
	filters     filter.Expression
	orderBy     []string
	selectList  []string
	syntax      mode.Syntax
	size        int
	k           int
}

// Option adjusts optional request parameters.
type Option func(*Request)

// WithSize sets the number of results to return.
func WithSize(n int) Option { return func(r *Request) { r.size = n } }

// WithK sets the number of nearest neighbors for the vector query.
func WithK(k int) Option { return func(r *Request) { r.k = k } }

// WithFilter sets the filter expression.
func WithFilter(e filter.Expression) Option { return func(r *Request) { r.filters = e } }

// WithRawFilter sets a verbatim OData filter.
func WithRawFilter(expr string) Option {
	return func(r *Request) { r.filters = filter.FromRaw(expr) }
}

// WithOrderBy appends sort clauses, each "field" or "field asc|desc".
func WithOrderBy(clauses ...string) Option {
	return func(r *Request) { r.orderBy = append(r.orderBy, clauses...) }
}

// WithSelect restricts the returned fields.
func WithSelect(fields ...string) Option {
	return func(r *Request) { r.selectList = append(r.selectList, fields...) }
}

// WithSyntax sets the keyword query parser.
func WithSyntax(s mode.Syntax) Option { return func(r *Request) { r.syntax = s } }

// NewKeyword creates a keyword request. Text "*" matches all documents.
func NewKeyword(text string, opts ...Option) (Request, error) {
	r := Request{searchMode: mode.Keyword, text: text}
	return r.finish(opts)
}

// NewVector creates a pure vector request over vectorField.
func NewVector(text, vectorField string, opts ...Option) (Request, error) {
	r := Request{searchMode: mode.Vector, vectorText: text, vectorField: vectorField}
	return r.finish(opts)
}

// NewHybrid creates a combined keyword and vector request.
// The vector text may differ from the keyword text.
func NewHybrid(text, vectorText, vectorField string, opts ...Option) (Request, error) {
	r := Request{searchMode: mode.Hybrid, text: text, vectorText: vectorText, vectorField: vectorField}
	return r.finish(opts)
}

func (r Request) finish(opts []Option) (Request, error) {
	for _, o := range opts {
		o(&r)
	}

	if r.searchMode.UsesText() {
		if err := validateText("query", r.text); err != nil {
			return Request{}, err
		}
	}
	if r.searchMode.UsesVector() {
		if err := validateText("vector query", r.vectorText); err != nil {
			return Request{}, err
		}
		if r.vectorField == "" {
			return Request{}, fmt.Errorf("vector field is required for %s search", r.searchMode)
		}
	}

	if r.syntax == "" {
		r.syntax = mode.Simple
	}
	if !r.syntax.IsValid() {
		return Request{}, fmt.Errorf("invalid query syntax: %q", r.syntax)
	}

	if r.size <= 0 {
		r.size = DefaultSize
	}
	if r.size > MaxSize {
		r.size = MaxSize
	}
	if r.k <= 0 {
		r.k = r.size
	}
	if r.k > MaxSize {
		r.k = MaxSize
	}

	if len(r.orderBy) > MaxOrderBy {
		return Request{}, fmt.Errorf("too many orderby clauses (max %d)", MaxOrderBy)
	}
	for i, c := range r.orderBy {
		c = strings.Join(strings.Fields(c), " ")
		if !orderByRegex.MatchString(c) {
			return Request{}, fmt.Errorf("invalid orderby clause %q: want \"field [asc|desc]\"", r.orderBy[i])
		}
		r.orderBy[i] = c
	}
	for _, f := range r.selectList {
		if strings.TrimSpace(f) == "" {
			return Request{}, fmt.Errorf("select list contains an empty field name")
		}
	}
	return r, nil
}

func validateText(what, s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", what)
	}
	if len(s) > MaxQueryLength {
		return fmt.Errorf("%s too long (max %d chars)", what, MaxQueryLength)
	}
	return nil
}

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Text returns the keyword query text (empty for vector requests).
func (r *Request) Text() string { return r.text }

// VectorText returns the text to embed (empty for keyword requests).
func (r *Request) VectorText() string { return r.vectorText }

// VectorField returns the target vector field.
func (r *Request) VectorField() string { return r.vectorField }

// Filters returns the filter expression.
func (r *Request) Filters() filter.Expression { return r.filters }

// OrderBy returns the normalized sort clauses.
func (r *Request) OrderBy() []string { return r.orderBy }

// Select returns the requested field list (empty means all retrievable).
func (r *Request) Select() []string { return r.selectList }

// Syntax returns the keyword query parser.
func (r *Request) Syntax() mode.Syntax { return r.syntax }

// Size returns the maximum number of results.
func (r *Request) Size() int { return r.size }

// K returns the nearest-neighbor count for the vector query.
func (r *Request) K() int { return r.k }
