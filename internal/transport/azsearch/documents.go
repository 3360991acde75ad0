package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/searchlab/internal/domain"
	"github.com/kailas-cloud/searchlab/internal/domain/batch"
	"github.com/kailas-cloud/searchlab/internal/metrics"
)

const searchActionKey = "@search.action"

// Upload sends docs in a single upload batch and reports the per-document outcome.
// Per-document rejections are returned in the report, not as an error.
// A 207 response means at least one document was rejected.
func (c *Client) Upload(ctx context.Context, indexName string, docs []map[string]any) (batch.Report, error) {
	report := batch.Report{Index: indexName}
	if len(docs) == 0 {
		return report, nil
	}

	actions := make([]map[string]any, len(docs))
	for i, d := range docs {
		a := make(map[string]any, len(d)+1)
		for k, v := range d {
			a[k] = v
		}
		a[searchActionKey] = "upload"
		actions[i] = a
	}

	var resp indexBatchResponseDTO
	if _, err := c.do(ctx, call{
		op:       opUpload,
		method:   http.MethodPost,
		path:     "/indexes/" + url.PathEscape(indexName) + "/docs/index",
		body:     map[string]any{"value": actions},
		resource: indexName,
	}, &resp); err != nil {
		return report, err
	}
	if len(resp.Value) != len(docs) {
		return report, fmt.Errorf("%s: %w: expected %d results, got %d",
			opUpload.name, domain.ErrResponseShape, len(docs), len(resp.Value))
	}

	report.Results = make([]batch.Result, 0, len(resp.Value))
	for _, r := range resp.Value {
		if r.Status {
			report.Results = append(report.Results, batch.NewOK(r.Key, r.StatusCode))
			continue
		}
		report.Results = append(report.Results, batch.NewError(r.Key, r.StatusCode, r.ErrorMessage))
	}

	failed := len(report.Failed())
	metrics.UploadedDocumentsTotal.WithLabelValues(indexName, "ok").Add(float64(len(docs) - failed))
	metrics.UploadedDocumentsTotal.WithLabelValues(indexName, "error").Add(float64(failed))
	return report, nil
}

// Lookup fetches one document by key. A missing document wraps domain.ErrNotFound.
// With an empty selectFields every retrievable field is returned.
func (c *Client) Lookup(ctx context.Context, indexName, key string, selectFields []string) (json.RawMessage, error) {
	q := url.Values{}
	if len(selectFields) > 0 {
		q.Set("$select", strings.Join(selectFields, ","))
	}

	var raw json.RawMessage
	if _, err := c.do(ctx, call{
		op:       opLookup,
		method:   http.MethodGet,
		path:     "/indexes/" + url.PathEscape(indexName) + "/docs/" + url.PathEscape(key),
		query:    q,
		resource: indexName,
	}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Count returns the number of documents in an index.
func (c *Client) Count(ctx context.Context, indexName string) (int64, error) {
	var buf bytes.Buffer
	if _, err := c.do(ctx, call{
		op:       opCount,
		method:   http.MethodGet,
		path:     "/indexes/" + url.PathEscape(indexName) + "/docs/$count",
		resource: indexName,
	}, &buf); err != nil {
		return 0, err
	}

	s := strings.TrimSpace(strings.TrimPrefix(buf.String(), "\ufeff"))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: invalid count %q", opCount.name, domain.ErrResponseShape, s)
	}
	return n, nil
}
