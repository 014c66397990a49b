// Package metrics exposes the Prometheus collectors for the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the collectors shared across the service.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	UploadsTotal     *prometheus.CounterVec
	UploadDuration   prometheus.Histogram
	WriteDuration    *prometheus.HistogramVec
	LiveSubscribers  prometheus.Gauge
	JournalRows      prometheus.Counter
}

// New registers the collectors on first use and returns the shared set.
// Registration happens once so repeated calls never panic on duplicates.
//
// Metrics:
//   - kebunku_submissions_total{mode,outcome}
//   - kebunku_uploads_total{result}
//   - kebunku_upload_duration_seconds
//   - kebunku_store_write_duration_seconds{op}
//   - kebunku_live_subscribers
//   - kebunku_journal_rows_exported_total
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			SubmissionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kebunku_submissions_total",
					Help: "Activity submissions by mode and outcome",
				},
				[]string{"mode", "outcome"}, // outcome: saved, validation, upload, persistence
			),
			UploadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kebunku_uploads_total",
					Help: "Photo uploads by result",
				},
				[]string{"result"}, // ok, failed, skipped
			),
			UploadDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "kebunku_upload_duration_seconds",
					Help:    "Duration of single photo uploads",
					Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
				},
			),
			WriteDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "kebunku_store_write_duration_seconds",
					Help:    "Duration of activity writes",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"op"},
			),
			LiveSubscribers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "kebunku_live_subscribers",
					Help: "Open timeline streams",
				},
			),
			JournalRows: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "kebunku_journal_rows_exported_total",
					Help: "Activities appended to the journal sheet",
				},
			),
		}
	})
	return globalMetrics
}
