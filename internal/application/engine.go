// Package application wires the policy index stages into a runnable
// pipeline: configuration loading, unit construction, sequential execution
// and the Engine entry point.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/logging"
	"github.com/ahrav/go-polindex/internal/ports"
)

// Engine runs a compiled pipeline over a corpus and returns the report.
// An Engine holds no per-run state and may be used concurrently.
type Engine struct {
	pipeline *Pipeline
	metrics  ports.MetricsCollector
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics records run counters and per (party, policy) statistics
// gauges on mc.
func WithMetrics(mc ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = mc }
}

// WithObserver attaches a stage observer to the engine's pipeline.
func WithObserver(o ports.StageObserver) EngineOption {
	return func(e *Engine) { e.pipeline.Observe(o) }
}

// WithLogger replaces the engine's logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine executing the steps of pipeline.
// The steps are copied into a private pipeline, so observers attached
// through options never leak into a cached Plan.
func NewEngine(pipeline ports.Pipeline, opts ...EngineOption) (*Engine, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline cannot be nil", domain.ErrInvalidConfiguration)
	}

	own := NewPipeline(pipeline.ID())
	for _, exec := range pipeline.Executables() {
		if err := own.Add(exec); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		pipeline: own,
		logger:   logging.New("engine"),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	own.Observe(&stageLogger{logger: e.logger})
	return e, nil
}

// Run transforms, aggregates and analyzes corpus, returning the report.
// Any stage failure aborts the run; no partial report is returned.
func (e *Engine) Run(ctx context.Context, corpus domain.Corpus) (domain.PolicyReport, error) {
	exec := domain.ExecutionContext{
		RunID:        e.newRunID(),
		PipelineName: e.pipeline.ID(),
		StartedAt:    e.now(),
	}
	logger := e.logger.With(slog.String("run_id", exec.RunID))
	logger.Info("run started",
		slog.String("pipeline", exec.PipelineName),
		slog.Int("parties", len(corpus)),
		slog.Int("paragraphs", corpus.Paragraphs()),
	)

	state := domain.With(domain.NewState(), domain.KeyCorpus, corpus).WithExecutionContext(exec)

	final, err := e.pipeline.Execute(ctx, state)
	if err != nil {
		logger.Error("run failed", slog.Any("error", err))
		return nil, err
	}

	report, err := domain.Require(final, domain.KeyReport)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s produced no report: %w", exec.PipelineName, err)
	}

	e.recordMetrics(corpus, final, report)

	logger.Info("run finished",
		slog.Int("policies", len(report)),
		slog.Duration("elapsed", e.now().Sub(exec.StartedAt)),
	)
	return report, nil
}

// recordMetrics exports input volumes and the report values.
func (e *Engine) recordMetrics(corpus domain.Corpus, final domain.State, report domain.PolicyReport) {
	if e.metrics == nil {
		return
	}

	for _, party := range corpus.Parties() {
		e.metrics.RecordCounter(ports.MetricParagraphs, float64(len(corpus[party])),
			map[string]string{"party": party})
	}

	if accumulators, ok := domain.Get(final, domain.KeyAccumulators); ok {
		for party, policies := range accumulators {
			labels := map[string]string{"party": party}
			for _, label := range policies.Labels() {
				acc := policies[label]
				e.metrics.RecordCounter(ports.MetricContributions, float64(acc.Len()), labels)
				for _, w := range acc.Weight {
					e.metrics.RecordHistogram(ports.MetricContributionWeight, w, labels)
				}
			}
		}
	}

	for _, policy := range report.Policies() {
		for _, stat := range report[policy] {
			values := map[string]float64{
				"percent": stat.Percent,
				"mean":    stat.Mean,
				"median":  stat.Median,
				"stdDev":  stat.StdDev,
			}
			for statistic, v := range values {
				e.metrics.RecordGauge(ports.MetricPolicyStatistic, v, map[string]string{
					"party":     stat.Party,
					"policy":    policy,
					"statistic": statistic,
				})
			}
		}
	}
}
