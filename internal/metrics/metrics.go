package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the submission pipeline and the HTTP surface.
var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vacancy_submissions_total",
			Help: "Submissions by outcome (accepted, invalid, storage_error)",
		},
		[]string{"outcome"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vacancy_deliveries_total",
			Help: "Notifier deliveries by notifier and result",
		},
		[]string{"notifier", "result"},
	)

	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vacancy_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	DocumentBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vacancy_document_bytes",
			Help:    "Size of rendered documents",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

var registerOnce sync.Once

// Register registers all metrics with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SubmissionsTotal)
		prometheus.MustRegister(DeliveriesTotal)
		prometheus.MustRegister(PipelineDuration)
		prometheus.MustRegister(DocumentBytes)
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
	})
}
