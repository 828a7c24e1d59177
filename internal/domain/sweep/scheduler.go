package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"salescrm/internal/pkg/lock"
	"salescrm/internal/pkg/metrics"
)

// ErrLockHeld means another process runs the scheduler.
var ErrLockHeld = lock.ErrHeld

var ErrUnknownJob = errors.New("unknown job")

type Job string

const (
	JobRecycle Job = "recycle"
	JobRemind  Job = "remind"
	JobPurge   Job = "purge"
)

// ParseJob validates a job name from the command line.
func ParseJob(s string) (Job, error) {
	switch j := Job(s); j {
	case JobRecycle, JobRemind, JobPurge:
		return j, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJob, s)
}

// Config holds cron expressions per job; an empty expression disables the job.
type Config struct {
	LockFile     string
	RecycleCron  string
	ReminderCron string
	PurgeCron    string
	Location     *time.Location
}

// Scheduler runs the periodic jobs in at most one process per host,
// guarded by an advisory file lock.
type Scheduler struct {
	cfg       Config
	recycler  *Recycler
	reminders *ReminderSweep
	purger    Purger
	log       zerolog.Logger
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
	lock *lock.FileLock
	ctx  context.Context
}

func NewScheduler(cfg Config, recycler *Recycler, reminders *ReminderSweep, purger Purger, log zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		cfg:       cfg,
		recycler:  recycler,
		reminders: reminders,
		purger:    purger,
		log:       log,
		now:       time.Now,
	}
}

// Start takes the lock and schedules the jobs. When another process holds
// the lock it returns ErrLockHeld and schedules nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	fl, err := lock.Acquire(s.cfg.LockFile)
	if errors.Is(err, lock.ErrHeld) {
		s.log.Info().Str("lock", s.cfg.LockFile).Msg("scheduler already running elsewhere, timers disabled")
		return ErrLockHeld
	}
	if err != nil {
		return err
	}

	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	jobs := []struct {
		job  Job
		spec string
	}{
		{JobRemind, s.cfg.ReminderCron},
		{JobRecycle, s.cfg.RecycleCron},
		{JobPurge, s.cfg.PurgeCron},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		job := j.job
		if _, err := c.AddFunc(j.spec, func() { _ = s.RunOnce(s.ctx, job) }); err != nil {
			_ = fl.Release()
			return fmt.Errorf("schedule %s %q: %w", job, j.spec, err)
		}
		s.log.Info().Str("job", string(job)).Str("spec", j.spec).Msg("job scheduled")
	}

	s.ctx = ctx
	s.lock = fl
	s.cron = c
	c.Start()
	s.log.Info().Str("lock", fl.Path()).Str("zone", s.cfg.Location.String()).Msg("scheduler started")
	return nil
}

// Stop waits for running jobs (or ctx) and releases the lock.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out waiting for jobs")
	}

	err := s.lock.Release()
	s.cron = nil
	s.lock = nil
	return err
}

// RunOnce runs a single job now.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	now := s.now()
	switch job {
	case JobRecycle:
		_, err := s.recycler.Run(ctx, now)
		return s.logFailure(job, err)
	case JobRemind:
		_, err := s.reminders.Run(ctx, now)
		return s.logFailure(job, err)
	case JobPurge:
		n, err := s.purger.PurgeExpired(ctx, now)
		metrics.RecordSweep(string(JobPurge), err == nil)
		if err == nil && n > 0 {
			s.log.Info().Int64("purged", n).Msg("expired reminder marks purged")
		}
		return s.logFailure(job, err)
	}
	return fmt.Errorf("%w: %q", ErrUnknownJob, job)
}

func (s *Scheduler) logFailure(job Job, err error) error {
	if err != nil {
		s.log.Error().Err(err).Str("job", string(job)).Msg("job failed")
	}
	return err
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
