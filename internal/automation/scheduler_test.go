package automation

import (
	"context"
	"sync"
	"testing"
	"time"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/scoring"
	"agency_portal_backend/internal/leads/service"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/leads/transport"
	"agency_portal_backend/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type schedulerFixture struct {
	scheduler *Scheduler
	svc       *service.Service
	store     *store.RedisStore
	clock     *fakeClock
	actor     service.Actor
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := store.NewRedisStoreFromClient(client)
	clock := &fakeClock{now: time.Date(2026, time.July, 1, 8, 0, 0, 0, time.UTC)}

	svc := service.New(st, nil, service.Defaults{
		Weights:         scoring.DefaultWeights(),
		Targets:         sla.DefaultTargets(),
		AutoArchiveDays: 30,
	}, nil).WithClock(clock.Now)

	reportStore := NewRedisReportStore(client)
	reports := NewReportEngine(reportStore, svc, nil)

	scheduler := NewScheduler(st, svc, nil, reports, nil, nil, clock, Config{
		Interval:     5 * time.Minute,
		FollowUpDays: []int{0, 7, 14, 21},
	})

	return &schedulerFixture{
		scheduler: scheduler,
		svc:       svc,
		store:     st,
		clock:     clock,
		actor:     service.Actor{ID: uuid.New(), Name: "Rania"},
	}
}

func (f *schedulerFixture) createLead(t *testing.T, name string) domain.Lead {
	t.Helper()
	lead, err := f.svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   name,
		Phone:  "+971501112233",
		Intent: domain.IntentBuying,
	}, f.actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return lead
}

func (f *schedulerFixture) getLead(t *testing.T, id uuid.UUID) domain.Lead {
	t.Helper()
	lead, err := f.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return lead
}

func TestTickRecordsDayZeroFollowUp(t *testing.T) {
	f := newSchedulerFixture(t)
	lead := f.createLead(t, "Fresh Lead")

	f.scheduler.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if !got.HasMilestone("followup_day_0") {
		t.Fatal("expected day-0 follow-up recorded")
	}
	if len(got.Interactions) != 1 {
		t.Fatalf("expected 1 automated interaction, got %d", len(got.Interactions))
	}
	if got.Interactions[0].Direction != domain.DirectionOutbound {
		t.Fatal("expected an outbound automated touch")
	}
}

func TestFollowUpsAreIdempotentAcrossTicks(t *testing.T) {
	f := newSchedulerFixture(t)
	lead := f.createLead(t, "Repeat Lead")

	f.clock.Advance(8 * 24 * time.Hour)
	f.scheduler.RunTick(context.Background())
	f.scheduler.RunTick(context.Background())
	f.scheduler.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if !got.HasMilestone("followup_day_0") || !got.HasMilestone("followup_day_7") {
		t.Fatalf("expected day 0 and day 7 fired, got %v", got.AutomationMilestones)
	}
	if got.HasMilestone("followup_day_14") {
		t.Fatal("day 14 must not fire at day 8")
	}
	if len(got.Interactions) != 2 {
		t.Fatalf("expected exactly 2 automated interactions after repeat ticks, got %d", len(got.Interactions))
	}
}

func TestFinalFollowUpForcesLongTermTimeline(t *testing.T) {
	f := newSchedulerFixture(t)
	lead, err := f.svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:     "Slow Lead",
		Phone:    "+971501112233",
		Intent:   domain.IntentBuying,
		Timeline: domain.TimelineImmediate,
	}, f.actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	scoreBefore := lead.Score

	f.clock.Advance(22 * 24 * time.Hour)
	f.scheduler.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if got.Timeline != domain.TimelineLongTerm {
		t.Fatalf("expected timeline forced to long_term at day 21, got %s", got.Timeline)
	}
	if got.Score >= scoreBefore {
		t.Fatalf("expected score to drop with the cooler timeline, %d -> %d", scoreBefore, got.Score)
	}
}

func TestFollowUpsSkipClosedLeads(t *testing.T) {
	f := newSchedulerFixture(t)
	lead := f.createLead(t, "Closed Lead")
	if _, err := f.svc.MarkLost(context.Background(), lead.ID, transport.MarkLostRequest{Reason: "other agency"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	f.scheduler.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if len(got.AutomationMilestones) != 0 {
		t.Fatalf("a lost lead must not receive follow-ups, got %v", got.AutomationMilestones)
	}
}

func TestFollowUpDaysSortedOnConstruction(t *testing.T) {
	f := newSchedulerFixture(t)
	lead := f.createLead(t, "Shuffled Cadence Lead")

	shuffled := NewScheduler(f.store, f.svc, nil, nil, nil, nil, f.clock, Config{
		Interval:     5 * time.Minute,
		FollowUpDays: []int{21, 0, 14, 7},
	})

	f.clock.Advance(8 * 24 * time.Hour)
	shuffled.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if !got.HasMilestone("followup_day_0") || !got.HasMilestone("followup_day_7") {
		t.Fatalf("expected days 0 and 7 fired despite an unordered cadence, got %v", got.AutomationMilestones)
	}
	if got.HasMilestone("followup_day_14") || got.HasMilestone("followup_day_21") {
		t.Fatalf("later offsets must not fire at day 8, got %v", got.AutomationMilestones)
	}
}

func TestTickFlagsFirstContactBreachOnce(t *testing.T) {
	f := newSchedulerFixture(t)
	lead := f.createLead(t, "Ignored Lead")

	f.clock.Advance(3 * time.Hour)
	f.scheduler.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if got.SLA.Compliant {
		t.Fatal("expected breach at 3h against a 2h target")
	}
	if got.SLA.OverdueByHours != 1 {
		t.Fatalf("expected 1 hour overdue, got %d", got.SLA.OverdueByHours)
	}
	if !got.HasMilestone(breachMilestone) {
		t.Fatal("expected breach notification recorded")
	}

	state, err := f.scheduler.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	tasksAfterBreach := state.TotalTasksExecuted

	// A later tick re-evaluates but must not notify again.
	f.clock.Advance(1 * time.Hour)
	f.scheduler.RunTick(context.Background())

	got = f.getLead(t, lead.ID)
	if got.SLA.OverdueByHours != 2 {
		t.Fatalf("expected overdue to grow to 2, got %d", got.SLA.OverdueByHours)
	}
	count := 0
	for _, m := range got.AutomationMilestones {
		if m == breachMilestone {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single breach milestone, got %d", count)
	}

	state, err = f.scheduler.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.TotalTasksExecuted != tasksAfterBreach {
		t.Fatalf("expected no new breach tasks, %d -> %d", tasksAfterBreach, state.TotalTasksExecuted)
	}
}

func TestTickPersistsSchedulerState(t *testing.T) {
	f := newSchedulerFixture(t)
	f.createLead(t, "Any Lead")

	f.scheduler.RunTick(context.Background())

	state, err := f.scheduler.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.LastRun == nil || !state.LastRun.Equal(f.clock.Now().UTC()) {
		t.Fatalf("expected lastRun stamped, got %v", state.LastRun)
	}
	if state.TotalTasksExecuted == 0 {
		t.Fatal("expected the day-0 follow-up counted")
	}
	if state.Running {
		t.Fatal("expected not running without Start")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	f := newSchedulerFixture(t)

	f.scheduler.Start(context.Background())
	state, err := f.scheduler.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !state.Running {
		t.Fatal("expected running after Start")
	}

	// Restart must be safe.
	f.scheduler.Start(context.Background())

	f.scheduler.Stop()
	state, err = f.scheduler.State(context.Background())
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Running {
		t.Fatal("expected stopped after Stop")
	}

	// Stop again is a no-op.
	f.scheduler.Stop()
}

func TestTickSurvivesFailingPass(t *testing.T) {
	f := newSchedulerFixture(t)
	lead := f.createLead(t, "Resilient Lead")

	// Poison the report pass.
	f.scheduler.reports = nil
	f.scheduler.RunTick(context.Background())

	got := f.getLead(t, lead.ID)
	if !got.HasMilestone("followup_day_0") {
		t.Fatal("expected earlier passes to run despite a missing report engine")
	}
}
