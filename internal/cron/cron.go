// Package cron runs periodic maintenance jobs, such as purging expired
// transient-mode records, on 5-field cron schedules.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name identifies the job in logs and must be unique per scheduler.
	Name() string

	// Schedule returns a 5-field cron expression (e.g. "17 * * * *").
	Schedule() string

	// Run executes the job once. It should honour ctx cancellation.
	Run(ctx context.Context) error
}

// Runner runs registered jobs on demand, outside their schedules.
type Runner interface {
	Jobs() []string
	RunNow(ctx context.Context, name string) error
}
