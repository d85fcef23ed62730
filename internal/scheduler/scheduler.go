// Package scheduler runs the periodic sync and backup jobs.
//
// Each job has its own loop with its own interval and cancel func. Loops
// are started, stopped and restarted from configuration snapshots passed to
// Apply. Stop interrupts pending waits immediately and lets an in-flight job
// finish.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/journalsync/internal/config"
	"github.com/iudanet/journalsync/internal/metrics"
)

// Loop names.
const (
	LoopSync   = "sync"
	LoopBackup = "backup"
)

// DefaultBackoff is the wait before retrying a failed job.
const DefaultBackoff = 30 * time.Second

// Job is one scheduled run.
type Job func(ctx context.Context) error

// LoopStatus describes one loop.
type LoopStatus struct {
	LastRun   *time.Time    `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	Interval  time.Duration `json:"interval"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	Running   bool          `json:"running"`
	Busy      bool          `json:"busy"` // a job is executing right now
}

// Status describes both loops.
type Status struct {
	Sync    LoopStatus `json:"sync"`
	Backup  LoopStatus `json:"backup"`
	Started bool       `json:"started"`
}

// Scheduler owns the sync and backup loops.
type Scheduler struct {
	parent  context.Context
	jobs    map[string]Job
	loops   map[string]*loop
	logger  *slog.Logger
	cfg     config.EngineConfig
	backoff time.Duration
	mu      sync.Mutex
	started bool

	statusMu sync.Mutex
	status   map[string]*LoopStatus
}

type loop struct {
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithBackoff overrides DefaultBackoff.
func WithBackoff(d time.Duration) Option {
	return func(s *Scheduler) {
		s.backoff = d
	}
}

// New creates a stopped scheduler for the given jobs and initial configuration.
func New(cfg config.EngineConfig, syncJob, backupJob Job, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:    map[string]Job{LoopSync: syncJob, LoopBackup: backupJob},
		loops:   make(map[string]*loop),
		status:  map[string]*LoopStatus{LoopSync: {}, LoopBackup: {}},
		logger:  logger.With(slog.String("component", "scheduler")),
		cfg:     cfg,
		backoff: DefaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the loops enabled by the current configuration. Calling
// Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.parent = ctx
	s.reconcile()

	s.logger.Info("Scheduler started",
		"auto_sync", s.cfg.AutoSyncEnabled,
		"sync_interval", s.cfg.SyncInterval,
		"backup", s.cfg.BackupEnabled,
		"backup_interval", s.cfg.BackupInterval)
}

// Stop cancels all loops and waits for in-flight jobs. Calling Stop on a
// stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	for name := range s.loops {
		s.stopLoop(name, true)
	}
	s.logger.Info("Scheduler stopped")
}

// Apply takes a new configuration snapshot. Loops are started or stopped to
// match the enabled flags, and restarted when their interval changed.
func (s *Scheduler) Apply(cfg config.EngineConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	if s.started {
		s.reconcile()
	}
}

// Status returns a snapshot of both loops.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return Status{
		Started: started,
		Sync:    *s.status[LoopSync],
		Backup:  *s.status[LoopBackup],
	}
}

// reconcile must be called with s.mu held.
func (s *Scheduler) reconcile() {
	want := map[string]time.Duration{}
	if s.cfg.AutoSyncEnabled {
		want[LoopSync] = s.cfg.SyncInterval
	}
	if s.cfg.BackupEnabled {
		want[LoopBackup] = s.cfg.BackupInterval
	}

	for _, name := range []string{LoopSync, LoopBackup} {
		interval, enabled := want[name]
		current, running := s.loops[name]

		if running && (!enabled || current.interval != interval) {
			// a restart does not wait for the previous job
			s.stopLoop(name, false)
			running = false
		}
		if enabled && !running && s.jobs[name] != nil {
			s.startLoop(name, interval)
		}
	}
}

func (s *Scheduler) startLoop(name string, interval time.Duration) {
	ctx, cancel := context.WithCancel(s.parent)
	l := &loop{
		cancel:   cancel,
		done:     make(chan struct{}),
		interval: interval,
	}
	s.loops[name] = l

	s.updateStatus(name, func(st *LoopStatus) {
		st.Running = true
		st.Interval = interval
	})

	go s.run(ctx, name, l)
	s.logger.Info("Loop started", "loop", name, "interval", interval)
}

func (s *Scheduler) stopLoop(name string, wait bool) {
	l, ok := s.loops[name]
	if !ok {
		return
	}
	delete(s.loops, name)
	l.cancel()
	if wait {
		<-l.done
	}

	s.updateStatus(name, func(st *LoopStatus) {
		st.Running = false
	})
	s.logger.Info("Loop stopped", "loop", name)
}

func (s *Scheduler) run(ctx context.Context, name string, l *loop) {
	defer close(l.done)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next := l.interval
		if err := s.runJob(ctx, name); err != nil {
			metrics.SchedulerErrorsTotal.WithLabelValues(name).Inc()
			s.logger.Error("Scheduled job failed", "loop", name, "error", err, "retry_in", s.backoff)
			next = s.backoff
		}
		timer.Reset(next)
	}
}

// runJob executes the job to completion even if the loop is cancelled
// meanwhile. Panics are turned into errors.
func (s *Scheduler) runJob(ctx context.Context, name string) (err error) {
	s.updateStatus(name, func(st *LoopStatus) {
		st.Busy = true
	})

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
		now := time.Now().UTC()
		s.updateStatus(name, func(st *LoopStatus) {
			st.Busy = false
			st.Runs++
			st.LastRun = &now
			st.LastError = ""
			if err != nil {
				st.Failures++
				st.LastError = err.Error()
			}
		})
	}()

	return s.jobs[name](context.WithoutCancel(ctx))
}

func (s *Scheduler) updateStatus(name string, fn func(*LoopStatus)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	fn(s.status[name])
}
