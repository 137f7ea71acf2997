package middleware

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-polindex/internal/ports"
)

func TestNewPrometheusMetrics(t *testing.T) {
	// Each instance owns its registry, so creating several must not panic
	// on duplicate registration.
	first := NewPrometheusMetrics()
	second := NewPrometheusMetrics()

	assert.NotSame(t, first.Registry(), second.Registry())
	assert.NotNil(t, first.stageLatency)
	assert.NotNil(t, first.policyStatistic)
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.RecordCounter(ports.MetricParagraphs, 3, map[string]string{"party": "A"})
	pm.RecordCounter(ports.MetricParagraphs, 2, map[string]string{"party": "A"})
	pm.RecordCounter(ports.MetricContributions, 7, map[string]string{"party": "B"})
	pm.RecordCounter(ports.MetricStageRuns, 1, map[string]string{"stage": "analyze", "status": "error"})
	pm.RecordCounter("cache_hits", 4, nil)

	assert.Equal(t, 5.0, testutil.ToFloat64(pm.paragraphs.WithLabelValues("A")))
	assert.Equal(t, 7.0, testutil.ToFloat64(pm.contributions.WithLabelValues("B")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.stageRuns.WithLabelValues("analyze", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pm.operations.WithLabelValues("cache_hits")))
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm := NewPrometheusMetrics()

	labels := map[string]string{"party": "A", "policy": "Economy", "statistic": "percent"}
	pm.RecordGauge(ports.MetricPolicyStatistic, 40, labels)
	pm.RecordGauge(ports.MetricPolicyStatistic, 71.43, labels)
	pm.RecordGauge("parties", 12, nil)

	assert.Equal(t, 71.43, testutil.ToFloat64(pm.policyStatistic.WithLabelValues("A", "Economy", "percent")))
	assert.Equal(t, 12.0, testutil.ToFloat64(pm.systemGauges.WithLabelValues("parties")))
}

func TestPrometheusMetrics_Histograms(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.RecordLatency(ports.MetricStageLatency, 120*time.Millisecond, map[string]string{"pipeline": "p", "stage": "transform"})
	pm.RecordLatency("load_config", 5*time.Millisecond, nil)
	pm.RecordHistogram(ports.MetricContributionWeight, 0.6, map[string]string{"party": "A"})
	pm.RecordHistogram(ports.MetricContributionWeight, 0.4, map[string]string{"party": "A"})

	assert.Equal(t, 2, testutil.CollectAndCount(pm.stageLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.contributionWeight))
}

func TestLabelOr(t *testing.T) {
	assert.Equal(t, "x", labelOr(map[string]string{"k": "x"}, "k", "d"))
	assert.Equal(t, "d", labelOr(map[string]string{"k": ""}, "k", "d"))
	assert.Equal(t, "d", labelOr(nil, "k", "d"))
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	pm := NewPrometheusMetrics()
	pm.RecordGauge(ports.MetricPolicyStatistic, -0.24, map[string]string{"party": "A", "policy": "Total", "statistic": "mean"})

	path := filepath.Join(t.TempDir(), "polindex.prom")
	require.NoError(t, pm.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `polindex_policy_statistic{party="A",policy="Total",statistic="mean"} -0.24`)

	err = pm.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "out.prom"))
	assert.Error(t, err)
}
