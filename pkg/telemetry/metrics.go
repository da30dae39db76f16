package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the deli provider. A Metrics
// created with Enabled=false is a no-op, so call sites never need to
// check whether collection is active.
type Metrics struct {
	config MetricsConfig

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsByClass     *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		config:   cfg,
		registry: registry,

		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "operations_total",
				Help:      "Total number of lifecycle operations by kind and outcome",
			},
			[]string{"operation", "kind", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of lifecycle operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "kind"},
		),
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(m.operations, m.operationDuration, m.errorsByClass)
	return m
}

// RecordOperation records a completed lifecycle operation.
func (m *Metrics) RecordOperation(operation, kind, status string, duration time.Duration) {
	if m.operations == nil {
		return
	}
	m.operations.WithLabelValues(operation, kind, status).Inc()
	m.operationDuration.WithLabelValues(operation, kind).Observe(duration.Seconds())
}

// RecordError records an error by class.
func (m *Metrics) RecordError(class string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(class).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartServer starts an HTTP server exposing the metrics endpoint. It
// returns immediately; the server runs until the process exits.
func (m *Metrics) StartServer(logger *Logger) {
	if !m.config.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()
}
