package channel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

var (
	// StepsTotal counts executed delivery steps.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsclaw",
		Name:      "dispatch_steps_total",
		Help:      "Delivery steps executed, by step kind and outcome.",
	}, []string{"kind", "outcome"})

	// StepDuration observes the transport round-trip of each step.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "newsclaw",
		Name:      "dispatch_step_duration_seconds",
		Help:      "Delivery step latency, by step kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
)

func observeStep(kind StepKind, elapsed time.Duration, err error) {
	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	StepsTotal.WithLabelValues(string(kind), outcome).Inc()
	StepDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}
