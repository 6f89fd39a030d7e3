// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces consumed by the codec and the blob server.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittoblob/pkg/codec"
	"github.com/marmos91/dittoblob/pkg/metrics"
)

// codecMetrics is the Prometheus implementation of codec.Metrics.
type codecMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payloadBytes      *prometheus.HistogramVec
	integrityFailures prometheus.Counter
}

// NewCodecMetrics creates a new Prometheus-backed codec.Metrics
// instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
// When nil is returned, pass nil to the codec config, which results in
// zero overhead.
func NewCodecMetrics() codec.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &codecMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoblob_codec_operations_total",
				Help: "Total number of codec offload and rehydrate operations by status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoblob_codec_operation_duration_milliseconds",
				Help: "Duration of codec offload and rehydrate operations in milliseconds",
				Buckets: []float64{
					10,    // 10ms - small payloads, local server
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s - large payloads
					5000,  // 5s
					30000, // 30s - very large transfers
				},
			},
			[]string{"operation"},
		),
		payloadBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittoblob_codec_payload_bytes",
				Help: "Distribution of payload sizes handled by the codec",
				Buckets: []float64{
					128000,    // offload threshold
					1048576,   // 1MB
					10485760,  // 10MB
					104857600, // 100MB
				},
			},
			[]string{"operation"},
		),
		integrityFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoblob_codec_integrity_failures_total",
				Help: "Total number of rehydrates rejected for digest or size mismatch",
			},
		),
	}
}

func (m *codecMetrics) ObserveOffload(bytes int64, duration time.Duration, err error) {
	m.observe("offload", bytes, duration, err)
}

func (m *codecMetrics) ObserveRehydrate(bytes int64, duration time.Duration, err error) {
	m.observe("rehydrate", bytes, duration, err)
}

func (m *codecMetrics) RecordIntegrityFailure() {
	m.integrityFailures.Inc()
}

func (m *codecMetrics) observe(operation string, bytes int64, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds() * 1000)
	if bytes > 0 {
		m.payloadBytes.WithLabelValues(operation).Observe(float64(bytes))
	}
}

var _ codec.Metrics = (*codecMetrics)(nil)
