// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LifecycleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_lifecycle_total",
			Help: "Annotation lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	IdentifierRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identifier_collisions_total",
			Help: "Identifier draws rejected because the value was taken",
		},
		[]string{"kind"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
