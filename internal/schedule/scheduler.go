// Package schedule layers recurring and run-on-startup triggers over
// compiled programs. A cron expression with a seconds field drives periodic
// runs; a tick that finds its program busy is skipped, which is the sole
// no-overlap guarantee for periodic jobs. Failures are logged and recorded,
// never propagated.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/robfig/cron/v3"

	"github.com/calder/stepscript/internal/engine"
	"github.com/calder/stepscript/internal/runlog"
)

var _ supervisor.Runnable = (*Scheduler)(nil)

// defaultStartupDelay is how long after Run starts that runOnStartup
// programs fire.
const defaultStartupDelay = 3 * time.Second

// cronParser accepts five- or six-field expressions; the optional leading
// field is seconds.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler owns a set of programs with scheduling attributes and drives
// them while running under a supervisor.
type Scheduler struct {
	logger       *slog.Logger
	log          *runlog.Store
	startupDelay time.Duration

	cron    *cron.Cron
	entries []*entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

type entry struct {
	program  *engine.Program
	schedule cron.Schedule
	startup  bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithRunLog records every triggered run into the given store.
func WithRunLog(store *runlog.Store) Option {
	return func(s *Scheduler) { s.log = store }
}

// WithStartupDelay overrides the delay before runOnStartup programs fire.
func WithStartupDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.startupDelay = d }
}

// New creates an empty Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:       slog.Default(),
		startupDelay: defaultStartupDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a program. Its definition's schedule expression is parsed
// now so malformed expressions fail before the scheduler starts. Programs
// with neither schedule nor runOnStartup are accepted and simply never
// triggered.
func (s *Scheduler) Add(p *engine.Program) error {
	def := p.Definition()
	e := &entry{program: p, startup: def.RunOnStartup}
	if def.Schedule != "" {
		sched, err := cronParser.Parse(def.Schedule)
		if err != nil {
			return &ScheduleError{Script: def.Name, Expression: def.Schedule, Err: err}
		}
		e.schedule = sched
	}
	s.entries = append(s.entries, e)
	return nil
}

// String implements the supervisor.Runnable interface.
func (s *Scheduler) String() string {
	return "schedule.Scheduler"
}

// Run implements the supervisor.Runnable interface. It starts the cron
// loop and the startup timers, then blocks until the context is cancelled
// or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	s.cron = cron.New(cron.WithParser(cronParser))
	s.mu.Unlock()

	for _, e := range s.entries {
		if e.schedule != nil {
			e := e
			s.cron.Schedule(e.schedule, cron.FuncJob(func() { s.trigger(runCtx, e, "schedule") }))
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "programs", len(s.entries))

	var startupTimers []*time.Timer
	for _, e := range s.entries {
		if e.startup {
			e := e
			startupTimers = append(startupTimers, time.AfterFunc(s.startupDelay, func() {
				s.trigger(runCtx, e, "startup")
			}))
		}
	}

	<-runCtx.Done()

	for _, t := range startupTimers {
		t.Stop()
	}
	// Wait for in-flight cron jobs before reporting stopped.
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// Stop implements the supervisor.Runnable interface.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// trigger fires one run unless the program is already busy, in which case
// the tick is skipped. Run results are logged and, when a run log is
// configured, recorded; errors never propagate to the scheduler loop.
func (s *Scheduler) trigger(ctx context.Context, e *entry, cause string) {
	name := e.program.Name()
	if e.program.Busy() {
		s.logger.Info("skipping tick, program busy", "script", name, "cause", cause)
		return
	}
	started := time.Now()
	output, err := e.program.Run(ctx, nil)
	if err != nil {
		s.logger.Error("triggered run failed", "script", name, "cause", cause, "error", err)
	} else {
		s.logger.Debug("triggered run finished", "script", name, "cause", cause,
			"elapsed", time.Since(started))
	}
	if s.log != nil {
		if recErr := s.log.RecordResult(context.WithoutCancel(ctx), name, started, output, err); recErr != nil {
			s.logger.Error("record run", "script", name, "error", recErr)
		}
	}
}
