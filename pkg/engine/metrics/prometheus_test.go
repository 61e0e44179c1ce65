package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/marmos91/deuce/pkg/engine"
)

func TestPrometheusMetrics_NilSafe(t *testing.T) {
	var m *prometheusMetrics

	m.RecordOperation("assign_block", time.Millisecond, nil)
	m.RecordRefCount("B1", 3)
}

func TestPrometheusMetrics_RecordOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg).(*prometheusMetrics)

	m.RecordOperation("assign_block", 10*time.Millisecond, nil)
	m.RecordOperation("assign_block", 20*time.Millisecond, nil)
	m.RecordOperation("unregister_block", 5*time.Millisecond, engine.NewConstraintError("p", "v", "still referenced"))

	if got := histogramCount(t, m.operationDuration, "assign_block"); got != 2 {
		t.Errorf("operationDuration{operation=assign_block} count = %d, want 2", got)
	}

	if got := counterValue(t, m.operationErrors, "unregister_block", "constraint"); got != 1 {
		t.Errorf("operationErrors{operation=unregister_block,code=constraint} = %f, want 1", got)
	}

	if got := counterValue(t, m.operationErrors, "assign_block", "constraint"); got != 0 {
		t.Errorf("operationErrors{operation=assign_block,code=constraint} = %f, want 0", got)
	}
}

func TestPrometheusMetrics_RecordOperation_NonEngineError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg).(*prometheusMetrics)

	m.RecordOperation("finalize_file", time.Millisecond, errors.New("disk full"))

	if got := counterValue(t, m.operationErrors, "finalize_file", "backend"); got != 1 {
		t.Errorf("operationErrors{operation=finalize_file,code=backend} = %f, want 1", got)
	}
}

func TestPrometheusMetrics_RecordRefCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg).(*prometheusMetrics)

	m.RecordRefCount("B1", 2)
	m.RecordRefCount("B1", 1)

	if got := gaugeValue(t, m.blockRefCount, "B1"); got != 1 {
		t.Errorf("blockRefCount{block_id=B1} = %f, want 1", got)
	}
}

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	var metric io_prometheus_client.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, gv *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	gauge, err := gv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	var metric io_prometheus_client.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return metric.GetGauge().GetValue()
}

func histogramCount(t *testing.T, hv *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	observer, err := hv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	histogram, ok := observer.(prometheus.Histogram)
	if !ok {
		t.Fatalf("observer for %v is not a prometheus.Histogram", labels)
	}
	var metric io_prometheus_client.Metric
	if err := histogram.Write(&metric); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return metric.GetHistogram().GetSampleCount()
}
