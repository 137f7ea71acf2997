package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-polindex/internal/domain"
)

// CorpusReader loads classifier output from an external source.
// Implementations decode the source into a domain.Corpus; they do not
// validate individual records, which is the transform stage's job.
type CorpusReader interface {
	// Read loads the corpus identified by path.
	Read(ctx context.Context, path string) (domain.Corpus, error)
}

// ReportWriter persists a finished policy report.
type ReportWriter interface {
	// Write stores report at path. Implementations must not leave a
	// partially written report behind on failure.
	Write(ctx context.Context, path string, report domain.PolicyReport) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or OpenTelemetry.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like processed paragraphs, errors, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for exporting the latest computed statistics.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like contribution weights.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// Metric names understood by MetricsCollector implementations.
const (
	// MetricStageLatency is recorded through RecordLatency once per stage run
	// with "pipeline" and "stage" labels.
	MetricStageLatency = "stage_duration"

	// MetricStageRuns counts stage runs with "stage" and "status" labels,
	// where status is "success" or "error".
	MetricStageRuns = "stage_runs_total"

	// MetricParagraphs counts paragraphs read from the corpus, by "party".
	MetricParagraphs = "paragraphs_total"

	// MetricContributions counts (left, right, weight) entries accumulated,
	// by "party".
	MetricContributions = "contributions_total"

	// MetricPolicyStatistic is a gauge labelled "party", "policy" and
	// "statistic" holding the latest rounded report values.
	MetricPolicyStatistic = "policy_statistic"

	// MetricContributionWeight observes individual contribution weights.
	MetricContributionWeight = "contribution_weight"
)
