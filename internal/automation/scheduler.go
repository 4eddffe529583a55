// Package automation runs the background loop over the lead collection:
// scheduled follow-ups, SLA monitoring, and report execution.
package automation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/leads/service"
	"agency_portal_backend/internal/store"
	"agency_portal_backend/platform/logger"
)

// Clock abstracts time so ticks can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the wall-clock implementation used in production.
func RealClock() Clock { return realClock{} }

// Config tunes the loop.
type Config struct {
	Interval     time.Duration
	FollowUpDays []int
}

// Scheduler owns the periodic automation cycle. Start and Stop are safe to
// call repeatedly; Start while running restarts the loop.
type Scheduler struct {
	store   store.LeadStore
	leads   *service.Service
	bus     events.Bus
	reports *ReportEngine
	notify  Notifier
	log     *logger.Logger
	clock   Clock
	cfg     Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewScheduler(st store.LeadStore, leads *service.Service, bus events.Bus, reports *ReportEngine, notify Notifier, log *logger.Logger, clock Clock, cfg Config) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if len(cfg.FollowUpDays) == 0 {
		cfg.FollowUpDays = []int{0, 7, 14, 21}
	}
	// The follow-up pass walks the offsets in order and stops at the first
	// one the lead has not aged into, so the cadence must be ascending
	// whatever order configuration supplied it in.
	days := append([]int(nil), cfg.FollowUpDays...)
	sort.Ints(days)
	cfg.FollowUpDays = days
	return &Scheduler{
		store:   st,
		leads:   leads,
		bus:     bus,
		reports: reports,
		notify:  notify,
		log:     log,
		clock:   clock,
		cfg:     cfg,
	}
}

// Start launches the loop. If a loop is already running it is stopped first,
// so callers can restart with confidence that exactly one loop is live.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running = true

	go s.loop(loopCtx, done)
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.running = false
}

// State reports whether the loop is live plus the persisted counters.
type State struct {
	Running            bool       `json:"running"`
	IntervalSeconds    int        `json:"intervalSeconds"`
	LastRun            *time.Time `json:"lastRun,omitempty"`
	TotalTasksExecuted int        `json:"totalTasksExecuted"`
}

func (s *Scheduler) State(ctx context.Context) (State, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	st := State{
		Running:         running,
		IntervalSeconds: int(s.cfg.Interval.Seconds()),
	}
	persisted, err := s.store.LoadSchedulerState(ctx)
	if err != nil {
		return State{}, err
	}
	if persisted != nil {
		st.LastRun = persisted.LastRun
		st.TotalTasksExecuted = persisted.TotalTasksExecuted
	}
	return st, nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// One cycle immediately on start so a restart does not wait a full
	// interval to catch up.
	s.RunTick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunTick(ctx)
		}
	}
}

// RunTick executes one full automation cycle: follow-ups, then SLA
// monitoring, then report execution. A failing or panicking pass is logged
// and the next pass still runs. Exported so tests and operators can drive
// cycles without the ticker.
func (s *Scheduler) RunTick(ctx context.Context) {
	started := s.clock.Now()
	tasks := 0

	tasks += s.runPass(ctx, "followups", s.runFollowUpPass)
	tasks += s.runPass(ctx, "sla", s.runSLAPass)
	tasks += s.runPass(ctx, "reports", s.runReportPass)

	now := s.clock.Now().UTC()
	state, err := s.store.LoadSchedulerState(ctx)
	if err != nil {
		if s.log != nil {
			s.log.StoreError("load_scheduler_state", err)
		}
		state = nil
	}
	if state == nil {
		state = &store.SchedulerState{}
	}
	state.LastRun = &now
	state.TotalTasksExecuted += tasks
	if err := s.store.SaveSchedulerState(ctx, *state); err != nil && s.log != nil {
		s.log.StoreError("save_scheduler_state", err)
	}

	if s.log != nil {
		s.log.SchedulerCycle(tasks, float64(s.clock.Now().Sub(started).Milliseconds()))
	}
}

// runPass isolates one pass: a panic or error is logged and converted into
// zero tasks so the remaining passes still run.
func (s *Scheduler) runPass(ctx context.Context, name string, pass func(context.Context) (int, error)) (tasks int) {
	defer func() {
		if r := recover(); r != nil {
			tasks = 0
			if s.log != nil {
				s.log.SchedulerPassError(name, fmt.Errorf("panic: %v", r))
			}
		}
	}()

	tasks, err := pass(ctx)
	if err != nil {
		if s.log != nil {
			s.log.SchedulerPassError(name, err)
		}
		return 0
	}
	return tasks
}
