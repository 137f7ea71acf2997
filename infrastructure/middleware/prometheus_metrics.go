// Package middleware provides cross-cutting concerns for the policy index
// pipeline: Prometheus metrics and OpenTelemetry stage tracing.
package middleware

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-polindex/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

const namespace = "polindex"

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. All metrics live in a private registry so a batch run can
// export exactly its own series with WriteTextfile.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	stageLatency       *prometheus.HistogramVec
	stageRuns          *prometheus.CounterVec
	paragraphs         *prometheus.CounterVec
	contributions      *prometheus.CounterVec
	contributionWeight *prometheus.HistogramVec
	policyStatistic    *prometheus.GaugeVec
	operations         *prometheus.CounterVec
	systemGauges       *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance with all metrics
// registered in a new registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		registry: registry,

		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Execution time of pipeline stages.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),
		stageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_runs_total",
				Help:      "Pipeline stage executions by outcome.",
			},
			[]string{"stage", "status"},
		),
		paragraphs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "paragraphs_total",
				Help:      "Classified paragraphs read from the corpus.",
			},
			[]string{"party"},
		),
		contributions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contributions_total",
				Help:      "Weighted (left, right) contributions accumulated per policy.",
			},
			[]string{"party"},
		),
		contributionWeight: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "contribution_weight",
				Help:      "Distribution of classifier confidences used as weights.",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"party"},
		),
		policyStatistic: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "policy_statistic",
				Help:      "Latest rounded report value per party, policy and statistic.",
			},
			[]string{"party", "policy", "statistic"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Counters recorded under names without a dedicated metric.",
			},
			[]string{"operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_state",
				Help:      "Gauges recorded under names without a dedicated metric.",
			},
			[]string{"metric"},
		),
	}
}

// Registry returns the registry holding this collector's metrics.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry { return pm.registry }

// WriteTextfile writes all metrics to path in the Prometheus text format,
// suitable for the node exporter's textfile collector.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// RecordLatency implements the MetricsCollector interface by recording
// stage latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	stage := labelOr(labels, "stage", operation)
	pm.stageLatency.WithLabelValues(labelOr(labels, "pipeline", "unknown"), stage).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricStageRuns:
		pm.stageRuns.WithLabelValues(labelOr(labels, "stage", "unknown"), labelOr(labels, "status", "success")).Add(value)
	case ports.MetricParagraphs:
		pm.paragraphs.WithLabelValues(labelOr(labels, "party", "unknown")).Add(value)
	case ports.MetricContributions:
		pm.contributions.WithLabelValues(labelOr(labels, "party", "unknown")).Add(value)
	default:
		pm.operations.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricPolicyStatistic:
		pm.policyStatistic.WithLabelValues(
			labelOr(labels, "party", "unknown"),
			labelOr(labels, "policy", "unknown"),
			labelOr(labels, "statistic", "unknown"),
		).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Names other than
// ports.MetricContributionWeight are treated as latencies in seconds.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == ports.MetricContributionWeight {
		pm.contributionWeight.WithLabelValues(labelOr(labels, "party", "unknown")).Observe(value)
		return
	}
	pm.stageLatency.WithLabelValues(labelOr(labels, "pipeline", "unknown"), metric).Observe(value)
}

// labelOr returns labels[key], or fallback when the label is missing or empty.
func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}
