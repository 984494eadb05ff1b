package cron

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job run results.
const (
	resultOK      = "ok"
	resultError   = "error"
	resultSkipped = "skipped"
)

var (
	// JobRuns counts job executions by job and result.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsclaw",
		Name:      "cron_job_runs_total",
		Help:      "Maintenance job runs, by job and result.",
	}, []string{"job", "result"})

	// JobDuration observes how long completed runs took.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "newsclaw",
		Name:      "cron_job_duration_seconds",
		Help:      "Duration of maintenance job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"job"})
)
