package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittoblob/pkg/blobserver"
	"github.com/marmos91/dittoblob/pkg/metrics"
)

// blobMetrics is the Prometheus implementation of
// blobserver.BlobMetrics.
type blobMetrics struct {
	blobsTotal         *prometheus.CounterVec
	bytesTotal         *prometheus.CounterVec
	blobBytes          *prometheus.HistogramVec
	checksumMismatches prometheus.Counter
}

// NewBlobMetrics creates a new Prometheus-backed
// blobserver.BlobMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBlobMetrics() blobserver.BlobMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	blobSizeBuckets := []float64{
		128000,     // offload threshold
		1048576,    // 1MB
		10485760,   // 10MB
		104857600,  // 100MB
		1073741824, // 1GB
	}

	return &blobMetrics{
		blobsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoblob_server_blobs_total",
				Help: "Total number of blobs stored and fetched",
			},
			[]string{"operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittoblob_server_bytes_total",
				Help: "Total blob bytes stored and fetched",
			},
			[]string{"operation"},
		),
		blobBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittoblob_server_blob_bytes",
				Help:    "Distribution of blob sizes",
				Buckets: blobSizeBuckets,
			},
			[]string{"operation"},
		),
		checksumMismatches: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittoblob_server_checksum_mismatches_total",
				Help: "Total number of puts rejected for checksum mismatch",
			},
		),
	}
}

func (m *blobMetrics) RecordBlobStored(bytes int64) {
	m.record("store", bytes)
}

func (m *blobMetrics) RecordBlobFetched(bytes int64) {
	m.record("fetch", bytes)
}

func (m *blobMetrics) RecordChecksumMismatch() {
	m.checksumMismatches.Inc()
}

func (m *blobMetrics) record(operation string, bytes int64) {
	m.blobsTotal.WithLabelValues(operation).Inc()
	if bytes > 0 {
		m.bytesTotal.WithLabelValues(operation).Add(float64(bytes))
		m.blobBytes.WithLabelValues(operation).Observe(float64(bytes))
	}
}

var _ blobserver.BlobMetrics = (*blobMetrics)(nil)
