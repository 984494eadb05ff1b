package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Purger deletes records of a collection last written before cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, collection string, cutoff time.Time) (int64, error)
}

// PurgeJob removes records that can no longer influence session state,
// e.g. transient-mode activations older than the longest mode window.
type PurgeJob struct {
	Purger       Purger
	Collection   string
	MaxAge       time.Duration
	ScheduleExpr string // empty = "17 * * * *"
	Logger       *slog.Logger

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

var _ Job = (*PurgeJob)(nil)

// Name implements Job.
func (j *PurgeJob) Name() string {
	return "purge:" + j.Collection
}

// Schedule implements Job.
func (j *PurgeJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "17 * * * *"
}

// Run deletes records older than MaxAge.
func (j *PurgeJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	cutoff := now().Add(-j.MaxAge)

	n, err := j.Purger.PurgeBefore(ctx, j.Collection, cutoff)
	if err != nil {
		return fmt.Errorf("cron: purge %s: %w", j.Collection, err)
	}
	if n > 0 && j.Logger != nil {
		j.Logger.Info("cron: purged expired records", "collection", j.Collection, "count", n)
	}
	return nil
}
