package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
)

// ServerMetrics aggregates HTTP and turn-level counters for the chat
// API process.
type ServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	turnsTotal        *prometheus.CounterVec
	turnDuration      *prometheus.HistogramVec
	turnRounds        *prometheus.HistogramVec
	catalogCallsTotal *prometheus.CounterVec
	displayedRecords  *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dasha",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dasha",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dasha",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dasha",
			Subsystem: "turn",
			Name:      "completed_total",
			Help:      "Total completed turns by intent and outcome.",
		},
		[]string{"service", "intent", "status"},
	)
	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dasha",
			Subsystem: "turn",
			Name:      "duration_seconds",
			Help:      "End-to-end turn duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "intent"},
	)
	turnRounds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dasha",
			Subsystem: "turn",
			Name:      "rounds",
			Help:      "Distribution of catalog rounds per turn.",
			Buckets:   []float64{0, 1, 2, 3},
		},
		[]string{"service", "intent"},
	)
	catalogCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dasha",
			Subsystem: "catalog",
			Name:      "calls_total",
			Help:      "Total catalog invocations by operation and outcome.",
		},
		[]string{"service", "operation", "status"},
	)
	displayedRecords := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dasha",
			Subsystem: "turn",
			Name:      "displayed_records",
			Help:      "Distribution of records returned per successful catalog call.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal, requestDuration, requestInFlight,
		turnsTotal, turnDuration, turnRounds,
		catalogCallsTotal, displayedRecords,
	)

	return &ServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		turnsTotal:        turnsTotal,
		turnDuration:      turnDuration,
		turnRounds:        turnRounds,
		catalogCallsTotal: catalogCallsTotal,
		displayedRecords:  displayedRecords,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ServerMetrics) ObserveHTTPRequest(service, method, path, status string, seconds float64) {
	m.requestTotal.WithLabelValues(service, method, path, status).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(seconds)
}

func (m *ServerMetrics) IncInFlight() { m.requestInFlight.Inc() }
func (m *ServerMetrics) DecInFlight() { m.requestInFlight.Dec() }

// RecordTurn folds one terminal turn outcome into the turn and catalog
// counters.
func (m *ServerMetrics) RecordTurn(service string, result *domain.TurnResult) {
	if result == nil {
		return
	}
	status := "ok"
	if result.FailureKind != "" {
		status = result.FailureKind
	}
	intent := string(result.Intent)

	m.turnsTotal.WithLabelValues(service, intent, status).Inc()
	m.turnDuration.WithLabelValues(service, intent).Observe(result.Duration.Seconds())
	m.turnRounds.WithLabelValues(service, intent).Observe(float64(result.Rounds))

	for _, invocation := range result.Invocations {
		callStatus := "ok"
		if invocation.Err != nil {
			callStatus = domain.ErrorKind(invocation.Err)
		} else {
			m.displayedRecords.WithLabelValues(service, string(invocation.Operation)).Observe(float64(len(invocation.Records)))
		}
		m.catalogCallsTotal.WithLabelValues(service, string(invocation.Operation), callStatus).Inc()
	}
}
