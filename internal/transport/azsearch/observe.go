package azsearch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlab/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/searchlab/internal/transport/azsearch"

// observer provides tracing, logging and metrics for remote calls.
type observer struct {
	logger *zap.Logger
	tracer trace.Tracer
}

func newObserver(logger *zap.Logger, tp trace.TracerProvider) *observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &observer{logger: logger, tracer: tp.Tracer(tracerName)}
}

// start opens a span for op. The returned func must be called with the outcome.
func (o *observer) start(ctx context.Context, op, method, resource string) (context.Context, func(status int, err error)) {
	ctx, span := o.tracer.Start(ctx, "azsearch."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("searchlab.resource", resource),
		),
	)
	start := time.Now()

	return ctx, func(status int, err error) {
		dur := time.Since(start)

		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RemoteRequestsTotal.WithLabelValues(op, outcome).Inc()
		metrics.RemoteRequestDuration.WithLabelValues(op).Observe(dur.Seconds())

		if status > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.logger.Warn("remote call failed",
				zap.String("op", op),
				zap.String("resource", resource),
				zap.Int("status", status),
				zap.Duration("duration", dur),
				zap.Error(err),
			)
		} else {
			o.logger.Debug("remote call completed",
				zap.String("op", op),
				zap.String("resource", resource),
				zap.Int("status", status),
				zap.Duration("duration", dur),
			)
		}
		span.End()
	}
}
