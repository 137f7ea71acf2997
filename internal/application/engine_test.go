package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-polindex/internal/domain"
	"github.com/ahrav/go-polindex/internal/ports"
)

// mockMetrics records every call made through ports.MetricsCollector.
type mockMetrics struct {
	mu         sync.Mutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms int
	latencies  int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (m *mockMetrics) RecordLatency(string, time.Duration, map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *mockMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metric+"/"+labels["party"]] += value
}

func (m *mockMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[strings.Join([]string{metric, labels["party"], labels["policy"], labels["statistic"]}, "/")] = value
}

func (m *mockMetrics) RecordHistogram(string, float64, map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms++
}

var _ ports.MetricsCollector = (*mockMetrics)(nil)

func paragraph(right, left float64, labels ...any) domain.ParagraphRecord {
	var predictions []domain.DomainPrediction
	for i := 0; i+1 < len(labels); i += 2 {
		predictions = append(predictions, domain.DomainPrediction{
			Label:      labels[i].(string),
			Prediction: labels[i+1].(float64),
		})
	}
	return domain.ParagraphRecord{FIPI: &domain.Classification{
		Domain:    predictions,
		LeftRight: []domain.PositionPrediction{{Prediction: right}, {Prediction: left}},
	}}
}

func testCorpus() domain.Corpus {
	return domain.Corpus{
		"A": {
			paragraph(0.3, 0.7, "Economy", 0.6, "Welfare", 0.4),
			paragraph(0.5, 0.5, "Economy", 0.4),
		},
		"B": {
			paragraph(0.8, 0.2, "Economy", 1.0),
		},
		"C": {},
	}
}

func defaultEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	loader := newTestLoader(t)
	plan, err := loader.LoadDefault(context.Background())
	require.NoError(t, err)
	engine, err := NewEngine(plan.Pipeline, opts...)
	require.NoError(t, err)
	return engine
}

func TestEngine_Run(t *testing.T) {
	engine := defaultEngine(t)

	report, err := engine.Run(context.Background(), testCorpus())
	require.NoError(t, err)

	want := domain.PolicyReport{
		"Economy": {
			{Party: "A", Percent: 71.43, Min: -0.4, Max: 0, Mean: -0.24, Median: -0.4, StdDev: 0.2},
			{Party: "B", Percent: 100, Min: 0.6, Max: 0.6, Mean: 0.6, Median: 0.6, StdDev: 0},
		},
		"Total": {
			{Party: "A", Percent: 100, Min: -0.4, Max: 0, Mean: -0.29, Median: -0.4, StdDev: 0.18},
			{Party: "B", Percent: 100, Min: 0.6, Max: 0.6, Mean: 0.6, Median: 0.6, StdDev: 0},
		},
		"Welfare": {
			{Party: "A", Percent: 28.57, Min: -0.4, Max: -0.4, Mean: -0.4, Median: -0.4, StdDev: 0},
		},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_RunIsIdempotent(t *testing.T) {
	engine := defaultEngine(t)
	corpus := testCorpus()

	first, err := engine.Run(context.Background(), corpus)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), corpus)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Len(t, corpus["A"], 2, "corpus is not modified")
}

func TestEngine_RunFailures(t *testing.T) {
	engine := defaultEngine(t)

	t.Run("malformed record aborts run", func(t *testing.T) {
		corpus := testCorpus()
		bad := paragraph(0.5, 0.5, "Economy", 0.5)
		bad.FIPI.LeftRight = nil
		corpus["B"] = append(corpus["B"], bad)

		report, err := engine.Run(context.Background(), corpus)
		require.Error(t, err)
		assert.Nil(t, report)

		var recErr *domain.RecordError
		require.True(t, errors.As(err, &recErr))
		assert.Equal(t, "B", recErr.Party)
		assert.Equal(t, 1, recErr.Index)
		assert.Contains(t, err.Error(), "execution failed at transform")
	})

	t.Run("zero weight party aborts run", func(t *testing.T) {
		corpus := domain.Corpus{"Z": {paragraph(0.5, 0.5, "Economy", 0.0)}}

		_, err := engine.Run(context.Background(), corpus)
		assert.True(t, errors.Is(err, domain.ErrZeroWeightSum))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.Run(ctx, testCorpus())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEngine_Metrics(t *testing.T) {
	metrics := newMockMetrics()
	engine := defaultEngine(t, WithMetrics(metrics))

	_, err := engine.Run(context.Background(), testCorpus())
	require.NoError(t, err)

	assert.Equal(t, 2.0, metrics.counters[ports.MetricParagraphs+"/A"])
	assert.Equal(t, 0.0, metrics.counters[ports.MetricParagraphs+"/C"])
	assert.Equal(t, 3.0, metrics.counters[ports.MetricContributions+"/A"])
	assert.Equal(t, 4, metrics.histograms)

	assert.Equal(t, 71.43, metrics.gauges[ports.MetricPolicyStatistic+"/A/Economy/percent"])
	assert.Equal(t, -0.29, metrics.gauges[ports.MetricPolicyStatistic+"/A/Total/mean"])
	assert.Equal(t, 0.6, metrics.gauges[ports.MetricPolicyStatistic+"/B/Economy/median"])
}

func TestEngine_Observer(t *testing.T) {
	loader := newTestLoader(t)
	plan, err := loader.LoadDefault(context.Background())
	require.NoError(t, err)

	observer := &recordingObserver{}
	engine, err := NewEngine(plan.Pipeline, WithObserver(observer))
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), testCorpus())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"weighted-policy-index/transform",
		"weighted-policy-index/aggregate",
		"weighted-policy-index/analyze",
	}, observer.finished)
	assert.Empty(t, plan.Pipeline.observers, "the cached plan must not pick up the engine's observer")
}

func TestEngine_LogsStagesAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := defaultEngine(t, WithLogger(logger))

	_, err := engine.Run(context.Background(), testCorpus())
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, `msg="stage started"`))
	assert.Equal(t, 3, strings.Count(out, `msg="stage finished"`))
	for _, stage := range []string{"transform", "aggregate", "analyze"} {
		assert.Contains(t, out, "level=DEBUG msg=\"stage finished\" pipeline=weighted-policy-index stage="+stage)
	}

	buf.Reset()
	quiet := defaultEngine(t, WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))))
	_, err = quiet.Run(context.Background(), testCorpus())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "stage finished")
	assert.Contains(t, buf.String(), "run finished")
}

func TestEngine_ExecutionContext(t *testing.T) {
	var seen domain.ExecutionContext
	inspect := &mockExecutable{id: "inspect", executeFunc: func(_ context.Context, s domain.State) (domain.State, error) {
		ec, ok := s.GetExecutionContext()
		if !ok {
			return s, errors.New("missing execution context")
		}
		seen = ec
		return domain.With(s, domain.KeyReport, domain.PolicyReport{}), nil
	}}
	pipeline := NewPipeline("inspect-pipeline")
	require.NoError(t, pipeline.Add(inspect))

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	engine, err := NewEngine(pipeline)
	require.NoError(t, err)
	engine.now = func() time.Time { return started }
	engine.newRunID = func() string { return "run-1" }

	report, err := engine.Run(context.Background(), domain.Corpus{})
	require.NoError(t, err)
	assert.Empty(t, report)
	assert.Equal(t, domain.ExecutionContext{RunID: "run-1", PipelineName: "inspect-pipeline", StartedAt: started}, seen)
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	engine, err := NewEngine(NewPipeline("empty"))
	require.NoError(t, err)
	_, err = engine.Run(context.Background(), domain.Corpus{})
	assert.ErrorIs(t, err, domain.ErrKeyNotFound, "a pipeline without analyze yields no report")
}
