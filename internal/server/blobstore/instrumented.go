package blobstore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors shared by instrumented stores.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.CounterVec
}

// NewMetrics registers the blob store collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudservice_blobstore_operations_total",
				Help: "Blob store operations by backend, operation and outcome",
			},
			[]string{"backend", "operation", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudservice_blobstore_operation_duration_seconds",
				Help:    "Blob store operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		bytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudservice_blobstore_uploaded_bytes_total",
				Help: "Bytes successfully written to the blob store",
			},
			[]string{"backend"},
		),
	}
}

// Instrumented decorates a BlobStore with Prometheus metrics.
type Instrumented struct {
	next    BlobStore
	backend string
	m       *Metrics
}

func NewInstrumented(next BlobStore, backend string, m *Metrics) *Instrumented {
	return &Instrumented{next: next, backend: backend, m: m}
}

func (s *Instrumented) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := s.next.Put(ctx, key, r, size, contentType)
	s.record("put", start, err)
	if err == nil {
		s.m.bytes.WithLabelValues(s.backend).Add(float64(size))
	}
	return err
}

func (s *Instrumented) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.next.Get(ctx, key)
	s.record("get", start, err)
	return rc, err
}

func (s *Instrumented) record(op string, start time.Time, err error) {
	s.m.duration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	s.m.operations.WithLabelValues(s.backend, op, status(err)).Inc()
}

func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorBlobNotFound):
		return "not_found"
	default:
		return "error"
	}
}
