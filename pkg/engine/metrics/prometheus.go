package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/deuce/pkg/engine"
)

// prometheusMetrics is the Prometheus implementation of BackendMetrics: a
// struct of promauto-registered collectors plus nil-receiver methods so a
// nil *prometheusMetrics is always safe to call.
type prometheusMetrics struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	blockRefCount     *prometheus.GaugeVec
}

// NewPrometheusMetrics registers Deuce's backend-operation collectors
// against reg (or the default registerer when reg is nil) and returns a
// BackendMetrics that reports to them.
func NewPrometheusMetrics(reg prometheus.Registerer) BackendMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &prometheusMetrics{
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deuce_backend_operation_duration_seconds",
				Help:    "Duration of engine.Backend operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "deuce_backend_operation_errors_total",
				Help: "Total engine.Backend operation failures by name and error code.",
			},
			[]string{"operation", "code"},
		),
		blockRefCount: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deuce_block_refcount",
				Help: "Refcount of the most recently touched blocks, by block id.",
			},
			[]string{"block_id"},
		),
	}
}

// RecordOperation implements BackendMetrics.
func (m *prometheusMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil {
		return
	}
	code := "backend"
	if ee, ok := err.(*engine.EngineError); ok {
		code = ee.Code.String()
	}
	m.operationErrors.WithLabelValues(operation, code).Inc()
}

// RecordRefCount implements BackendMetrics.
func (m *prometheusMetrics) RecordRefCount(blockID string, count int64) {
	if m == nil {
		return
	}
	m.blockRefCount.WithLabelValues(blockID).Set(float64(count))
}
