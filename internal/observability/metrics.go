package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report server activity.
type Metrics struct {
	httpRequestDuration *prometheus.HistogramVec
	sweepTransitions    prometheus.Counter
	sweepRuns           *prometheus.CounterVec
	notificationsSent   *prometheus.CounterVec
	streamClients       prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the package-level metrics instance registered with the
// global Prometheus registry. The collectors are created only once to avoid
// duplicate registration panics when subsystems are instantiated multiple
// times (e.g. in unit tests).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// The caller is responsible for supplying a fresh registry when unique metric
// names are required (for example in tests). Any registration error panics,
// mirroring promauto semantics so configuration bugs surface early.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskhub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	sweepTransitions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "sweep",
			Name:      "overdue_transitions_total",
			Help:      "Total number of tasks moved to overdue by the periodic sweep.",
		},
	)
	sweepRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total sweep executions by outcome.",
		},
		[]string{"outcome"},
	)
	notificationsSent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskhub",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total notifications dispatched by kind.",
		},
		[]string{"kind"},
	)
	streamClients := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "taskhub",
			Subsystem: "notify",
			Name:      "stream_clients",
			Help:      "Currently connected notification stream clients.",
		},
	)
	reg.MustRegister(httpRequestDuration, sweepTransitions, sweepRuns, notificationsSent, streamClients)
	return &Metrics{
		httpRequestDuration: httpRequestDuration,
		sweepTransitions:    sweepTransitions,
		sweepRuns:           sweepRuns,
		notificationsSent:   notificationsSent,
		streamClients:       streamClients,
	}
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(route, method, status string, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(route, method, status).Observe(latency.Seconds())
}

// AddSweepTransitions records tasks flipped to overdue by a sweep pass.
func (m *Metrics) AddSweepTransitions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweepTransitions.Add(float64(n))
}

// RecordSweepRun records a sweep execution outcome ("ok" or "error").
func (m *Metrics) RecordSweepRun(outcome string) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
}

// RecordNotification records a dispatched notification by kind.
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsSent.WithLabelValues(kind).Inc()
}

// StreamClientConnected adjusts the connected stream client gauge.
func (m *Metrics) StreamClientConnected(delta int) {
	if m == nil {
		return
	}
	m.streamClients.Add(float64(delta))
}
