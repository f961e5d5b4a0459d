package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one process. All methods are no-ops on a nil *Metrics.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	stateTransitions  *prometheus.CounterVec
	resourcesChanged  *prometheus.CounterVec
	diagnosticsTotal  prometheus.Counter
	requestsTotal     *prometheus.CounterVec
	requestsInFlight  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_operations_total",
				Help: "Total number of lifecycle operations per operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fabric_operation_duration_seconds",
				Help:    "Duration of lifecycle operations in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"operation"},
		),
		stateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_stack_state_transitions_total",
				Help: "Total number of stack state transitions",
			},
			[]string{"from_state", "to_state"},
		),
		resourcesChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_resources_changed_total",
				Help: "Total number of resources changed by converge and destroy, per change kind",
			},
			[]string{"change"},
		),
		diagnosticsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fabric_compile_diagnostics_total",
				Help: "Total number of edges skipped with a diagnostic during compilation",
			},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_http_requests_total",
				Help: "Total number of API requests per route and status code",
			},
			[]string{"route", "code"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fabric_http_requests_in_flight",
				Help: "Number of API requests being served",
			},
		),
	}
	reg.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.stateTransitions,
		m.resourcesChanged,
		m.diagnosticsTotal,
		m.requestsTotal,
		m.requestsInFlight,
	)
	return m
}

// ObserveOperation records one finished operation. outcome is "success" or an error code.
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) StateTransition(from, to string) {
	if m == nil {
		return
	}
	m.stateTransitions.WithLabelValues(from, to).Inc()
}

// ResourcesChanged adds the per-change counts of a converge or destroy.
func (m *Metrics) ResourcesChanged(changes map[string]int) {
	if m == nil {
		return
	}
	for change, n := range changes {
		m.resourcesChanged.WithLabelValues(change).Add(float64(n))
	}
}

func (m *Metrics) Diagnostics(n int) {
	if m == nil {
		return
	}
	m.diagnosticsTotal.Add(float64(n))
}

func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, statusLabel(code)).Inc()
}

// SetInFlight reports the number of requests being served.
func (m *Metrics) SetInFlight(n int64) {
	if m == nil {
		return
	}
	m.requestsInFlight.Set(float64(n))
}
