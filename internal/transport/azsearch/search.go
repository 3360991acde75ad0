package azsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/search/query"
	"github.com/kailas-cloud/searchlab/internal/domain/search/result"
)

type searchRequestDTO struct {
	Search        string           `json:"search,omitempty"`
	QueryType     string           `json:"queryType,omitempty"`
	Filter        string           `json:"filter,omitempty"`
	OrderBy       string           `json:"orderby,omitempty"`
	Top           int              `json:"top,omitempty"`
	Select        string           `json:"select,omitempty"`
	VectorQueries []vectorQueryDTO `json:"vectorQueries,omitempty"`
}

type vectorQueryDTO struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchResponseDTO struct {
	Value []json.RawMessage `json:"value"`
}

func toSearchDTO(q query.Query) searchRequestDTO {
	dto := searchRequestDTO{
		Search:    q.Search,
		QueryType: q.QueryType,
		Filter:    q.Filter,
		OrderBy:   strings.Join(q.OrderBy, ","),
		Top:       q.Top,
		Select:    strings.Join(q.Select, ","),
	}
	for _, v := range q.VectorQueries {
		dto.VectorQueries = append(dto.VectorQueries, vectorQueryDTO{
			Kind:   "vector",
			Vector: v.Vector,
			K:      v.K,
			Fields: strings.Join(v.Fields, ","),
		})
	}
	return dto
}

// Search runs q against indexName and returns the first page in service order.
// A rejected expression wraps domain.ErrQuerySyntax with the service message.
func (c *Client) Search(ctx context.Context, indexName string, q query.Query) ([]result.Result, error) {
	var resp searchResponseDTO
	if _, err := c.do(ctx, call{
		op:       opSearch,
		method:   http.MethodPost,
		path:     "/indexes/" + url.PathEscape(indexName) + "/docs/search",
		body:     toSearchDTO(q),
		resource: indexName,
	}, &resp); err != nil {
		return nil, err
	}

	out := make([]result.Result, 0, len(resp.Value))
	for i, raw := range resp.Value {
		r, err := result.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: result %d: %w", opSearch.name, domain.ErrResponseShape, i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
