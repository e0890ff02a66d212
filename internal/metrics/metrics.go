package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Remote submission metrics
	RemoteSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkposter_remote_submissions_total",
			Help: "Total number of documents sent to the remote service",
		},
		[]string{"kind", "outcome"},
	)

	RemoteSubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bulkposter_remote_submission_duration_seconds",
			Help:    "Remote submission duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Local validation metrics
	PostingsValidatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkposter_postings_validated_total",
			Help: "Total number of postings validated locally",
		},
		[]string{"result"},
	)

	ValidationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkposter_validation_errors_total",
			Help: "Total number of errors recorded on postings and batches",
		},
		[]string{"kind"},
	)

	// Response metrics
	ResponseItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkposter_response_items_total",
			Help: "Total number of remote response items, by whether they matched a posting",
		},
		[]string{"kind", "matched"},
	)
)

// Outcome labels for RemoteSubmissionsTotal.
const (
	OutcomeOK               = "ok"
	OutcomeForbidden        = "forbidden"
	OutcomeUnsupportedMedia = "unsupported_media_type"
	OutcomeUnexpectedStatus = "unexpected_status"
	OutcomeTransportError   = "transport_error"
	OutcomeMalformed        = "malformed_response"
)
