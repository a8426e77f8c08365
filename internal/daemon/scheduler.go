package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fenilsonani/tidyd/internal/config"
)

// Job is a named task run on a cron schedule
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	PrevRun time.Time
}

// Scheduler runs maintenance jobs (weekly report, journal pruning) on their
// own goroutine. Jobs never move files.
type Scheduler struct {
	ctx     context.Context
	logger  *slog.Logger
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	jobsMu  sync.RWMutex
	running bool
}

// NewScheduler creates a new scheduler. Jobs receive ctx.
func NewScheduler(ctx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger.With("component", "scheduler")}

	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLogger(cl),
		cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		),
	)

	return &Scheduler{
		ctx:    ctx,
		logger: logger,
		cron:   c,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop stops the scheduler and waits up to timeout for running jobs
func (s *Scheduler) Stop(timeout time.Duration) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		s.logger.Warn("scheduler stop timed out")
	}

	s.running = false
	s.logger.Info("scheduler stopped")
}

// AddJob registers a job
func (s *Scheduler) AddJob(job Job) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already exists", job.Name)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = id

	s.logger.Info("added job", "job", job.Name, "schedule", job.Schedule)
	return nil
}

func (s *Scheduler) runJob(job Job) {
	start := time.Now()
	s.logger.Info("executing scheduled job", "job", job.Name)
	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("job failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Info("job completed", "job", job.Name, "duration", time.Since(start))
}

// ListJobs returns the registered jobs with their next and previous run times
func (s *Scheduler) ListJobs() []JobInfo {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	names := make(map[cron.EntryID]string, len(s.jobs))
	for name, id := range s.jobs {
		names[id] = name
	}

	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, entry := range s.cron.Entries() {
		if name, ok := names[entry.ID]; ok {
			jobs = append(jobs, JobInfo{
				Name:    name,
				NextRun: entry.Next,
				PrevRun: entry.Prev,
			})
		}
	}
	return jobs
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
