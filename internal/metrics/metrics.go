// Package metrics holds the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BallotsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movienight_ballots_submitted_total",
		Help: "Ballots accepted across all meetings.",
	})

	MeetingsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movienight_meetings_resolved_total",
		Help: "Meetings resolved on voting close.",
	})

	ResolutionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movienight_resolution_failures_total",
		Help: "Resolution attempts that failed (logged, never surfaced).",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movienight_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)
