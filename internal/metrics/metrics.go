package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/interview-prep/judge/pkg/solution"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	Verdicts          *prometheus.CounterVec
	ToolchainFailures prometheus.Counter
	CompileDuration   prometheus.Histogram
	TestCaseDuration  *prometheus.HistogramVec
	BusyWorkers       prometheus.Gauge
	QueueMessages     *prometheus.CounterVec
	EventsPublished   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers all collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_verdicts_total",
			Help: "Total number of judge invocations by operation and verdict",
		}, []string{"operation", "verdict"}),
		ToolchainFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "judge_toolchain_failures_total",
			Help: "Total number of invocations that could not launch the compiler",
		}),
		CompileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "judge_compile_duration_seconds",
			Help:    "Compilation wall time in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		TestCaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judge_test_case_duration_seconds",
			Help:    "Test case wall time in seconds by outcome",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"outcome"}),
		BusyWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "judge_busy_workers",
			Help: "Number of worker slots currently judging",
		}),
		QueueMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_queue_messages_total",
			Help: "Total number of queue messages processed by type and status",
		}, []string{"type", "status"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_events_published_total",
			Help: "Total number of submission events by publish status",
		}, []string{"status"}),
		gatherer: gatherer,
	}
}

func (m *Metrics) IncVerdict(operation string, verdict solution.Verdict) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(operation, string(verdict)).Inc()
}

func (m *Metrics) IncToolchainFailure() {
	if m == nil {
		return
	}
	m.ToolchainFailures.Inc()
}

func (m *Metrics) ObserveCompile(d time.Duration) {
	if m == nil {
		return
	}
	m.CompileDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveTestCases(results []solution.ExecutionResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.TestCaseDuration.WithLabelValues(string(r.Outcome)).Observe(float64(r.TimeMs) / 1000)
	}
}

func (m *Metrics) SetBusyWorkers(n int) {
	if m == nil {
		return
	}
	m.BusyWorkers.Set(float64(n))
}

func (m *Metrics) IncQueueMessage(messageType, status string) {
	if m == nil {
		return
	}
	m.QueueMessages.WithLabelValues(messageType, status).Inc()
}

func (m *Metrics) IncEventPublished(status string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
