package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var _ Runner = (*Scheduler)(nil)

// ErrJobBusy is returned by RunNow when the job is already running.
var ErrJobBusy = errors.New("cron: job already running")

// Scheduler executes registered jobs on their schedules. A job never runs
// in parallel with itself: a tick that finds the previous run still in
// progress is skipped.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   map[string]Job
	order  []string
	locks  map[string]*sync.Mutex
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs must be registered before Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]Job),
		locks:  make(map[string]*sync.Mutex),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterJob adds a job. Duplicate names are rejected.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}
	s.jobs[name] = j
	s.order = append(s.order, name)
	s.locks[name] = &sync.Mutex{}
	return nil
}

// Jobs lists registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// Start parses every schedule and begins ticking. An invalid expression
// fails Start without scheduling anything.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))

	for _, name := range s.order {
		job := s.jobs[name]
		if _, err := c.AddFunc(job.Schedule(), func() { s.tick(job) }); err != nil {
			return fmt.Errorf("cron: invalid schedule for job %q: %w", name, err)
		}
	}

	s.cron = c
	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", len(s.order))
	return nil
}

func (s *Scheduler) tick(job Job) {
	if err := s.run(s.ctx, job); err != nil {
		if errors.Is(err, ErrJobBusy) {
			s.logger.Warn("cron: job still running, skipping tick", "job", job.Name())
			return
		}
		s.logger.Error("cron: job failed", "job", job.Name(), "error", err)
	}
}

// RunNow runs the named job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cron: unknown job %q", name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	name := job.Name()
	lock := s.locks[name]
	if !lock.TryLock() {
		JobRuns.WithLabelValues(name, resultSkipped).Inc()
		return ErrJobBusy
	}
	defer lock.Unlock()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		JobRuns.WithLabelValues(name, resultError).Inc()
		return err
	}
	JobRuns.WithLabelValues(name, resultOK).Inc()
	s.logger.Debug("cron: job completed", "job", name, "duration", elapsed)
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
		s.logger.Info("cron: scheduler stopped")
	}
	return nil
}
