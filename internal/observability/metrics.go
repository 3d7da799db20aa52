package observability

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for packnback.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationsActive  prometheus.Gauge
	OperationDuration *prometheus.HistogramVec

	// Record metrics
	RecordsTotal        *prometheus.CounterVec
	PlaintextBytesTotal *prometheus.CounterVec

	// Crypto metrics
	AuthFailuresTotal  *prometheus.CounterVec
	KeyOperationsTotal *prometheus.CounterVec

	activeOperations int64
}

// NewMetrics creates all Prometheus metrics and registers them with reg.
// Passing a fresh prometheus.NewRegistry() keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packnback_operations_total",
				Help: "Encrypt, decrypt, sign and verify operations by result",
			},
			[]string{"operation", "result"},
		),

		OperationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "packnback_operations_active",
				Help: "Operations currently in progress",
			},
		),

		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "packnback_operation_duration_seconds",
				Help:    "Operation latency distribution",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"operation"},
		),

		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packnback_records_total",
				Help: "Ciphertext records processed",
			},
			[]string{"direction"},
		),

		PlaintextBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packnback_plaintext_bytes_total",
				Help: "Plaintext bytes sealed or opened",
			},
			[]string{"direction"},
		),

		AuthFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packnback_auth_failures_total",
				Help: "Records or signatures that failed authentication",
			},
			[]string{"kind"},
		),

		KeyOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packnback_key_operations_total",
				Help: "Key generation, load and save operations",
			},
			[]string{"operation"},
		),
	}

	return m
}

// RecordOperationStart increments the active operation gauge.
func (m *Metrics) RecordOperationStart() {
	if m == nil {
		return
	}
	m.OperationsActive.Set(float64(atomic.AddInt64(&m.activeOperations, 1)))
}

// RecordOperationComplete records operation outcome and duration.
func (m *Metrics) RecordOperationComplete(operation string, success bool, durationSeconds float64) {
	if m == nil {
		return
	}
	m.OperationsActive.Set(float64(atomic.AddInt64(&m.activeOperations, -1)))

	result := "success"
	if !success {
		result = "failure"
	}

	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordSealed updates metrics for a sealed record.
func (m *Metrics) RecordSealed(plaintextLen int) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues("sealed").Inc()
	m.PlaintextBytesTotal.WithLabelValues("sealed").Add(float64(plaintextLen))
}

// RecordOpened updates metrics for an opened record.
func (m *Metrics) RecordOpened(plaintextLen int) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues("opened").Inc()
	m.PlaintextBytesTotal.WithLabelValues("opened").Add(float64(plaintextLen))
}

// RecordAuthFailure increments authentication failure counters.
// kind is "record" or "signature".
func (m *Metrics) RecordAuthFailure(kind string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(kind).Inc()
}

// RecordKeyOperation counts key lifecycle events.
func (m *Metrics) RecordKeyOperation(operation string) {
	if m == nil {
		return
	}
	m.KeyOperationsTotal.WithLabelValues(operation).Inc()
}

// Handler exposes the Prometheus metrics endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
