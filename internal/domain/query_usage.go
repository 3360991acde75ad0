package domain

import "context"

type queryUsageKey struct{}

// QueryUsage tallies the query embeddings spent answering one search.
// A caller that wants the numbers attaches a collector with WithQueryUsage;
// code that embeds a query text records into whichever collector the context carries.
type QueryUsage struct {
	Vectorized int // query texts embedded
	Tokens     int
}

// WithQueryUsage returns ctx carrying a fresh collector.
func WithQueryUsage(ctx context.Context) (context.Context, *QueryUsage) {
	u := &QueryUsage{}
	return context.WithValue(ctx, queryUsageKey{}, u), u
}

// QueryUsageFrom returns the collector attached to ctx, or nil.
func QueryUsageFrom(ctx context.Context) *QueryUsage {
	u, _ := ctx.Value(queryUsageKey{}).(*QueryUsage)
	return u
}

// Record counts one embedded query text. No-op on a nil collector.
func (u *QueryUsage) Record(tokens int) {
	if u == nil {
		return
	}
	u.Vectorized++
	u.Tokens += tokens
}

// Embedded reports whether any query text was vectorized,
// including providers that report zero tokens.
func (u *QueryUsage) Embedded() bool {
	return u != nil && u.Vectorized > 0
}
