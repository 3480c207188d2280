package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/pkg/solution"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)

	m.IncVerdict("submit", solution.Accepted)
	m.IncVerdict("submit", solution.Accepted)
	m.IncVerdict("run", solution.CompileError)
	m.IncToolchainFailure()
	m.SetBusyWorkers(3)
	m.IncQueueMessage("submit", "ok")
	m.IncEventPublished("failed")
	m.ObserveCompile(150 * time.Millisecond)
	m.ObserveTestCases([]solution.ExecutionResult{
		{Outcome: solution.OutcomeCompleted, TimeMs: 10},
		{Outcome: solution.OutcomeTimeLimitExceeded, TimeMs: 2000},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("submit", "Accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("run", "CompileError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolchainFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BusyWorkers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueMessages.WithLabelValues("submit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.TestCaseDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncVerdict("run", solution.Accepted)
		m.IncToolchainFailure()
		m.ObserveCompile(time.Second)
		m.ObserveTestCases([]solution.ExecutionResult{{Outcome: solution.OutcomeCompleted}})
		m.SetBusyWorkers(1)
		m.IncQueueMessage("run", "ok")
		m.IncEventPublished("ok")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.IncVerdict("run", solution.WrongAnswer)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `judge_verdicts_total{operation="run",verdict="WrongAnswer"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
