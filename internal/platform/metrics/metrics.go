package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsPublished  *prometheus.CounterVec
	PublishFailures  *prometheus.CounterVec
	IngestSuccess    *prometheus.CounterVec
	IngestFailures   *prometheus.CounterVec
	RequestsCreated  prometheus.Counter
	RequestsRejected *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_events_published_total",
			Help: "Total number of domain events handed to the publisher, by topic and mode.",
		}, []string{"topic", "mode"}),
		PublishFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_publish_failures_total",
			Help: "Total number of event publish attempts the transport rejected.",
		}, []string{"topic"}),
		IngestSuccess: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_ingest_success_total",
			Help: "Total number of events applied to a secondary store.",
		}, []string{"topic"}),
		IngestFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_ingest_failures_total",
			Help: "Total number of ingestion failures, by topic and reason.",
		}, []string{"topic", "reason"}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veriflow_requests_created_total",
			Help: "Total number of verification requests accepted for creation.",
		}),
		RequestsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veriflow_requests_rejected_total",
			Help: "Total number of verification request creations rejected, by reason.",
		}, []string{"reason"}),
	}
}
