package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: полное время обработки вызова прокси (включая апстрим)
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во вызовов
	TotalRequests *prometheus.CounterVec

	// Errors: классификация отказов по ErrorKind
	ErrorTotal *prometheus.CounterVec

	// Upstream: длительность исходящих вызовов и их коды
	UpstreamDuration *prometheus.HistogramVec

	// Saturation: состояние Circuit Breaker (0 - closed, 1 - half-open, 2 - open)
	CircuitBreakerState *prometheus.GaugeVec

	// Audit: заполненность буфера журнала (backpressure)
	AuditBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "superai_request_duration_seconds",
			Help:    "Histogram of proxy request latencies.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"component", "operation", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "superai_requests_total",
			Help: "Total number of proxy requests.",
		}, []string{"component", "operation"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "superai_errors_total",
			Help: "Total number of proxy errors by kind.",
		}, []string{"component", "kind"}), // kind: configuration, upstream, invalid_action, invalid_request, parse

		UpstreamDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "superai_upstream_duration_seconds",
			Help:    "Histogram of upstream call latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream", "outcome"}),

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "superai_circuit_breaker_state",
			Help: "Current state of the upstream circuit breaker (0=closed, 1=half-open, 2=open).",
		}, []string{"upstream"}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "superai_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),
	}
}
