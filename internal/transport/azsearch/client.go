package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/searchlab/internal/domain"
)

const maxErrorBody = 1 << 16

// Client talks to the search service REST API. Safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	http       *http.Client
	limiter    *rate.Limiter
	obs        *observer
}

// New creates a Client. Endpoint and key are checked when a call is made,
// so a misconfigured client fails with domain.ErrConfiguration at first use.
func New(endpoint, apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{apiVersion: DefaultAPIVersion}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:     apiKey,
		apiVersion: cfg.apiVersion,
		http:       hc,
		limiter:    cfg.limiter,
		obs:        newObserver(cfg.logger, tp),
	}
}

// operation names a remote call and decides which error kind a failure maps to.
type operation struct {
	name string
	kind func(status int) error
}

func always(kind error) func(int) error { return func(int) error { return kind } }

var (
	opPutIndex     = operation{"index.put", always(domain.ErrIndexProvisioning)}
	opDeleteIndex  = operation{"index.delete", always(domain.ErrIndexProvisioning)}
	opPutSource    = operation{"knowledgesource.put", always(domain.ErrIndexProvisioning)}
	opDeleteSource = operation{"knowledgesource.delete", always(domain.ErrIndexProvisioning)}
	opPutAgent     = operation{"agent.put", always(domain.ErrIndexProvisioning)}
	opDeleteAgent  = operation{"agent.delete", always(domain.ErrIndexProvisioning)}
	opUpload       = operation{"docs.upload", always(domain.ErrRetrieval)}
	opCount        = operation{"docs.count", always(domain.ErrRetrieval)}
	opStats        = operation{"servicestats", always(domain.ErrRetrieval)}
	opRetrieve     = operation{"agent.retrieve", always(domain.ErrRetrieval)}
	opSearch       = operation{"docs.search", func(status int) error {
		if status == http.StatusBadRequest {
			return domain.ErrQuerySyntax
		}
		return domain.ErrRetrieval
	}}
	opLookup = operation{"docs.lookup", func(status int) error {
		if status == http.StatusNotFound {
			return domain.ErrNotFound
		}
		return domain.ErrRetrieval
	}}
)

// call describes one request.
type call struct {
	op       operation
	method   string
	path     string
	query    url.Values
	body     any
	resource string
}

// do executes a call, decoding a 2xx body into out (unless out is nil) and
// non-2xx bodies into a *domain.RemoteError. It returns the HTTP status.
func (c *Client) do(ctx context.Context, cl call, out any) (int, error) {
	if c.endpoint == "" {
		return 0, fmt.Errorf("%s: %w: search endpoint is not set", cl.op.name, domain.ErrConfiguration)
	}
	if c.apiKey == "" {
		return 0, fmt.Errorf("%s: %w: search api key is not set", cl.op.name, domain.ErrConfiguration)
	}
	base, err := url.Parse(c.endpoint)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return 0, fmt.Errorf("%s: %w: invalid search endpoint %q", cl.op.name, domain.ErrConfiguration, c.endpoint)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("%s: %w: rate limit: %w", cl.op.name, domain.ErrRetrieval, err)
		}
	}

	ctx, finish := c.obs.start(ctx, cl.op.name, cl.method, cl.resource)
	status, err := c.roundTrip(ctx, base, cl, out)
	finish(status, err)
	return status, err
}

func (c *Client) roundTrip(ctx context.Context, base *url.URL, cl call, out any) (int, error) {
	q := url.Values{}
	for k, v := range cl.query {
		q[k] = v
	}
	q.Set("api-version", c.apiVersion)

	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + cl.path
	u.RawPath = ""
	u.RawQuery = q.Encode()

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode request: %w", cl.op.name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: build request: %w", cl.op.name, domain.ErrConfiguration, err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", cl.op.name, domain.ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, decodeError(cl.op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if w, ok := out.(io.Writer); ok {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: %w: read body: %w", cl.op.name, domain.ErrRetrieval, err)
		}
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s: %w: decode body: %w", cl.op.name, domain.ErrResponseShape, err)
	}
	return resp.StatusCode, nil
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(op operation, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	code, msg := "", strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
		code, msg = eb.Error.Code, eb.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.NewRemoteError(op.kind(resp.StatusCode), op.name, resp.StatusCode, code, msg)
}

func isNotFound(err error) bool {
	var re *domain.RemoteError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}
