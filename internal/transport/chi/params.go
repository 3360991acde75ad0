package chi

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"
)

// BookSearchParams are the query parameters of GET /books/search.
type BookSearchParams struct {
	Q       *string   `form:"q" json:"q,omitempty"`
	Filter  *string   `form:"filter" json:"filter,omitempty"`
	OrderBy *[]string `form:"orderby" json:"orderby,omitempty"`
	Size    *int      `form:"size" json:"size,omitempty"`
}

// JobSearchParams are the query parameters of GET /jobs/search.
type JobSearchParams struct {
	Mode   *string `form:"mode" json:"mode,omitempty"`
	Q      *string `form:"q" json:"q,omitempty"`
	Vq     *string `form:"vq" json:"vq,omitempty"`
	K      *int    `form:"k" json:"k,omitempty"`
	Size   *int    `form:"size" json:"size,omitempty"`
	Filter *string `form:"filter" json:"filter,omitempty"`
}

type bindError struct {
	param string
	err   error
}

func (e *bindError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %v", e.param, e.err)
}

func (e *bindError) Unwrap() error { return e.err }

func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return &bindError{param: name, err: err}
	}
	return nil
}

func bindBookSearchParams(r *http.Request) (BookSearchParams, error) {
	var p BookSearchParams
	for name, dest := range map[string]any{
		"q":       &p.Q,
		"filter":  &p.Filter,
		"orderby": &p.OrderBy,
		"size":    &p.Size,
	} {
		if err := bindQuery(r, name, dest); err != nil {
			return BookSearchParams{}, err
		}
	}
	return p, nil
}

func bindJobSearchParams(r *http.Request) (JobSearchParams, error) {
	var p JobSearchParams
	for name, dest := range map[string]any{
		"mode":   &p.Mode,
		"q":      &p.Q,
		"vq":     &p.Vq,
		"k":      &p.K,
		"size":   &p.Size,
		"filter": &p.Filter,
	} {
		if err := bindQuery(r, name, dest); err != nil {
			return JobSearchParams{}, err
		}
	}
	return p, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
