// Package moldmetrics instruments the core operation surface (finalize,
// validate, compare) and the plugin read/write calls with Prometheus
// counters and histograms, grounded on the teacher's
// internal/database/postgres/prometheus.go PoolMetrics adapter (the same
// "wrap a domain operation, observe duration, bump a result counter"
// shape), generalized from database pool operations to corectx/plugin
// operations.
package moldmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector this repository registers.
// Registered once per process via MustRegister and shared by cmd/moldctl
// and internal/httpapi.
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationTotal    *prometheus.CounterVec
	PluginIOTotal     *prometheus.CounterVec
	ValidationStatus  *prometheus.CounterVec
}

// New constructs Metrics without registering them, so callers can choose a
// registry (the default global one, or an isolated one in tests).
func New() *Metrics {
	return &Metrics{
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moldctl",
			Name:      "operation_duration_seconds",
			Help:      "Duration of core operations (finalize, validate, compare).",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		OperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldctl",
			Name:      "operation_total",
			Help:      "Count of core operations by result.",
		}, []string{"operation", "result"}),
		PluginIOTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldctl",
			Name:      "plugin_io_total",
			Help:      "Count of plugin config/mold read and write calls.",
		}, []string{"plugin", "action", "result"}),
		ValidationStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moldctl",
			Name:      "validation_status_total",
			Help:      "Count of ValidateTree outcomes by corectx.Status.",
		}, []string{"status"}),
	}
}

// MustRegister registers every collector against reg.
func (m *Metrics) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(m.OperationDuration, m.OperationTotal, m.PluginIOTotal, m.ValidationStatus)
}

// Observe wraps op, recording its duration under operation and bumping
// OperationTotal with "ok"/"error" depending on whether op returned an
// error.
func (m *Metrics) Observe(operation string, op func() error) error {
	start := time.Now()
	err := op()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OperationTotal.WithLabelValues(operation, result).Inc()
	return err
}

// RecordPluginIO bumps PluginIOTotal for a plugin config_read/config_write/
// mold_read/mold_write call.
func (m *Metrics) RecordPluginIO(plugin, action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PluginIOTotal.WithLabelValues(plugin, action, result).Inc()
}

// RecordValidationStatus bumps ValidationStatus for a ValidateTree outcome.
func (m *Metrics) RecordValidationStatus(status string) {
	m.ValidationStatus.WithLabelValues(status).Inc()
}
