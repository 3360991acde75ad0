package azsearch

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultAPIVersion is the REST API version that exposes knowledge agents.
const DefaultAPIVersion = "2025-08-01-preview"

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiVersion     string
	httpClient     *http.Client
	timeout        time.Duration
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	limiter        *rate.Limiter
}

// WithAPIVersion overrides the REST API version. Default: DefaultAPIVersion.
func WithAPIVersion(v string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiVersion = v
	})
}

// WithHTTPClient sets the HTTP client used for all calls.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets a per-call timeout on the default HTTP client.
// Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging of remote calls.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.tracerProvider = tp
	})
}

// WithRateLimit caps outgoing calls to rps requests per second with the given
// burst. Calls wait for a token and fail with the context error on cancel.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	})
}
