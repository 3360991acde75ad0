package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter with must/should/must_not boolean semantics.
// It renders to an OData $filter expression.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// All is a shorthand for an expression where every condition must hold.
func All(conds ...Condition) Expression {
	return Expression{must: conds}
}

// FromRaw wraps a caller-supplied OData expression. Empty input yields an empty expression.
func FromRaw(expr string) Expression {
	if strings.TrimSpace(expr) == "" {
		return Expression{}
	}
	return Expression{must: []Condition{Raw(expr)}}
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// Conditions returns every condition across all groups.
func (e Expression) Conditions() []Condition {
	out := make([]Condition, 0, len(e.must)+len(e.should)+len(e.mustNot))
	out = append(out, e.must...)
	out = append(out, e.should...)
	return append(out, e.mustNot...)
}

// String renders the expression as OData. Empty expressions render as "".
func (e Expression) String() string {
	var parts []string

	single := len(e.must) == 1 && len(e.should) == 0 && len(e.mustNot) == 0
	for _, c := range e.must {
		if single {
			parts = append(parts, c.String())
			continue
		}
		parts = append(parts, c.grouped())
	}

	switch len(e.should) {
	case 0:
	case 1:
		parts = append(parts, e.should[0].grouped())
	default:
		alts := make([]string, len(e.should))
		for i, c := range e.should {
			alts[i] = c.grouped()
		}
		parts = append(parts, "("+strings.Join(alts, " or ")+")")
	}

	for _, c := range e.mustNot {
		parts = append(parts, "not ("+c.String()+")")
	}

	return strings.Join(parts, " and ")
}

// Kind is the condition variant.
type Kind int

// Condition kinds.
const (
	KindMatch Kind = iota + 1
	KindContains
	KindRange
	KindIn
	KindRaw
)

// Condition is a single filter clause.
type Condition struct {
	kind      Kind
	key       string
	match     string
	values    []string
	rangeExpr *Range
	raw       string
}

// NewMatch creates an exact equality condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{kind: KindMatch, key: key, match: match}, nil
}

// NewContains creates a full-text term match on a searchable field.
func NewContains(key, term string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if term == "" {
		return Condition{}, fmt.Errorf("contains term is required for key %q", key)
	}
	return Condition{kind: KindContains, key: key, match: term}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: KindRange, key: key, rangeExpr: &r}, nil
}

// NewIn creates a set-membership condition.
func NewIn(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	for _, v := range values {
		if strings.Contains(v, "|") {
			return Condition{}, fmt.Errorf("value %q for key %q contains the delimiter '|'", v, key)
		}
	}
	return Condition{kind: KindIn, key: key, values: values}, nil
}

// Raw wraps a verbatim OData expression. Syntax is checked by the remote service.
func Raw(expr string) Condition {
	return Condition{kind: KindRaw, raw: strings.TrimSpace(expr)}
}

// Kind returns the condition variant.
func (c Condition) Kind() Kind { return c.kind }

// Key returns the field name (empty for raw conditions).
func (c Condition) Key() string { return c.key }

// Match returns the equality value or contains term.
func (c Condition) Match() string { return c.match }

// Values returns the set-membership values.
func (c Condition) Values() []string { return c.values }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is an equality condition.
func (c Condition) IsMatch() bool { return c.kind == KindMatch }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.kind == KindRange }

// IsRaw reports whether this is a verbatim expression.
func (c Condition) IsRaw() bool { return c.kind == KindRaw }

// String renders the condition as OData.
func (c Condition) String() string {
	switch c.kind {
	case KindMatch:
		return fmt.Sprintf("%s eq %s", c.key, quote(c.match))
	case KindContains:
		return fmt.Sprintf("search.ismatch(%s, %s)", quote(c.match), quote(c.key))
	case KindIn:
		return fmt.Sprintf("search.in(%s, %s, '|')", c.key, quote(strings.Join(c.values, "|")))
	case KindRange:
		return c.rangeExpr.render(c.key)
	case KindRaw:
		return c.raw
	}
	return ""
}

// grouped renders the condition, parenthesized when it is compound.
func (c Condition) grouped() string {
	s := c.String()
	if c.kind == KindRaw || (c.kind == KindRange && c.rangeExpr.bounds() > 1) {
		return "(" + s + ")"
	}
	return s
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

func (r Range) bounds() int {
	n := 0
	for _, b := range []*float64{r.gt, r.gte, r.lt, r.lte} {
		if b != nil {
			n++
		}
	}
	return n
}

func (r Range) render(key string) string {
	var parts []string
	ops := []struct {
		op string
		v  *float64
	}{{"gt", r.gt}, {"ge", r.gte}, {"lt", r.lt}, {"le", r.lte}}
	for _, o := range ops {
		if o.v != nil {
			parts = append(parts, fmt.Sprintf("%s %s %s", key, o.op, strconv.FormatFloat(*o.v, 'f', -1, 64)))
		}
	}
	return strings.Join(parts, " and ")
}
