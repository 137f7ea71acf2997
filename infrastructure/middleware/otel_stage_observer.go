package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

var _ ports.StageObserver = (*OTelStageObserver)(nil)

const tracerName = "github.com/ahrav/go-polindex/pipeline"

// OTelStageObserver traces every pipeline stage with an OpenTelemetry span
// and reports stage latency and outcome to a MetricsCollector.
type OTelStageObserver struct {
	tracer  trace.Tracer
	metrics ports.MetricsCollector
}

// StageObserverOption configures an OTelStageObserver.
type StageObserverOption func(*OTelStageObserver)

// WithTracer overrides the tracer obtained from the global provider.
func WithTracer(t trace.Tracer) StageObserverOption {
	return func(o *OTelStageObserver) { o.tracer = t }
}

// NewOTelStageObserver creates a stage observer. metrics may be nil.
func NewOTelStageObserver(metrics ports.MetricsCollector, opts ...StageObserverOption) *OTelStageObserver {
	o := &OTelStageObserver{
		tracer:  otel.Tracer(tracerName),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StageStarted implements ports.StageObserver. It starts a span named after
// the stage and returns a context carrying it.
func (o *OTelStageObserver) StageStarted(ctx context.Context, pipelineID, stageID string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "stage."+stageID, trace.WithAttributes(
		attribute.String("pipeline.id", pipelineID),
		attribute.String("stage.id", stageID),
	))
	return ctx
}

// StageFinished implements ports.StageObserver. It ends the stage span,
// marking it failed when err is non-nil, and records metrics.
func (o *OTelStageObserver) StageFinished(
	ctx context.Context,
	pipelineID, stageID string,
	elapsed time.Duration,
	err error,
) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.Int64("stage.duration_ms", elapsed.Milliseconds()))

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.annotateFailure(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if o.metrics == nil {
		return
	}
	o.metrics.RecordLatency(ports.MetricStageLatency, elapsed, map[string]string{
		"pipeline": pipelineID,
		"stage":    stageID,
	})
	o.metrics.RecordCounter(ports.MetricStageRuns, 1, map[string]string{
		"stage":  stageID,
		"status": status,
	})
}

// annotateFailure adds an event naming the offending record or statistic
// when the error carries one.
func (o *OTelStageObserver) annotateFailure(span trace.Span, err error) {
	var recErr *domain.RecordError
	if errors.As(err, &recErr) {
		span.AddEvent("record.malformed", trace.WithAttributes(
			attribute.String("party", recErr.Party),
			attribute.Int("paragraph", recErr.Index),
		))
		return
	}

	var statErr *domain.StatError
	if errors.As(err, &statErr) {
		span.AddEvent("statistic.failed", trace.WithAttributes(
			attribute.String("party", statErr.Party),
			attribute.String("policy", statErr.Policy),
			attribute.String("measure", statErr.Measure),
		))
	}
}
