// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Job names.
const (
	JobCleanupInvites = "cleanup_invites"
	JobPruneAuditLogs = "prune_audit_logs"
)

const defaultMisfireGrace = 10 * time.Minute

var ErrDuplicateJob = errors.New("job already registered")

// Func is the body of a job. The context is cancelled on Stop.
type Func func(ctx context.Context) error

type job struct {
	name    string
	fn      Func
	entryID cron.EntryID
	running sync.Mutex
}

// Scheduler wraps a cron runner with per-job overlap protection, a misfire
// grace window, structured logs and metrics. Missed ticks are never replayed.
type Scheduler struct {
	cron    *cron.Cron
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
	grace   time.Duration

	mu   sync.Mutex
	jobs map[string]*job

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithMisfireGrace sets how late a run may start before it is skipped.
func WithMisfireGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.grace = d
		}
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  clock.New(),
		logger: slog.Default(),
		grace:  defaultMisfireGrace,
		jobs:   map[string]*job{},
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("component", "scheduler")
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
		cron.WithLogger(cronLogger{s.logger}),
	)
	return s
}

// Register adds a job on a standard five-field cron spec.
func (s *Scheduler) Register(name, spec string, fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	j := &job{name: name, fn: fn}
	id, err := s.cron.AddFunc(spec, func() {
		s.execute(s.ctx, j, s.cron.Entry(j.entryID).Prev)
	})
	if err != nil {
		return fmt.Errorf("registering job %s: %w", name, err)
	}
	j.entryID = id
	s.jobs[name] = j

	s.logger.Info("job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop prevents new runs, cancels running ones and waits for them to return
// or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

// RunNow executes a registered job immediately, subject to the same
// overlap rule as scheduled runs.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.execute(ctx, j, time.Time{})
}

// execute runs j once. A zero planned time disables the misfire check.
func (s *Scheduler) execute(ctx context.Context, j *job, planned time.Time) error {
	log := s.logger.With("job", j.name)

	if !planned.IsZero() {
		if late := s.clock.Now().Sub(planned); late > s.grace {
			log.Warn("skipping misfired run", "planned", planned, "late", late)
			s.metrics.ObserveJob(j.name, metrics.JobOutcomeSkippedMisfire, 0)
			return nil
		}
	}

	if !j.running.TryLock() {
		log.Warn("skipping run, previous run still in progress")
		s.metrics.ObserveJob(j.name, metrics.JobOutcomeSkippedRunning, 0)
		return nil
	}
	defer j.running.Unlock()

	start := s.clock.Now()
	log.Info("job started")
	err := j.fn(ctx)
	elapsed := s.clock.Now().Sub(start)

	if err != nil {
		log.Error("job failed", "error", err, "duration", elapsed)
		s.metrics.ObserveJob(j.name, metrics.JobOutcomeError, elapsed)
		s.metrics.JobError(j.name, err)
		return err
	}
	log.Info("job finished", "duration", elapsed)
	s.metrics.ObserveJob(j.name, metrics.JobOutcomeOK, elapsed)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
