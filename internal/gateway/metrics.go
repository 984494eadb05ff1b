package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook request outcomes.
const (
	outcomeAccepted   = "accepted"
	outcomeVerified   = "verified"
	outcomeRejected   = "rejected"
	outcomeInvalid    = "invalid"
	outcomeUnknown    = "unknown_source"
	outcomeFailed     = "failed"
	outcomeBadRequest = "bad_request"
)

// WebhookRequests counts webhook requests per source and outcome.
var WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "newsclaw",
	Subsystem: "gateway",
	Name:      "webhook_requests_total",
	Help:      "Webhook requests by source and outcome.",
}, []string{"source", "outcome"})

func observeWebhook(source, outcome string) {
	WebhookRequests.WithLabelValues(source, outcome).Inc()
}
