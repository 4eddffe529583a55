package store

import (
	"context"
	"testing"
	"time"

	"agency_portal_backend/internal/leads/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreFromClient(client)
}

func TestLoadAllEmptyStore(t *testing.T) {
	st := newTestStore(t)

	leads, err := st.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if leads == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(leads) != 0 {
		t.Fatalf("expected no leads, got %d", len(leads))
	}
}

func TestReplaceAndLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	email := "amira@example.com"
	lead := domain.Lead{
		ID:            uuid.New(),
		Name:          "Amira Hassan",
		Phone:         "+971501234567",
		Email:         &email,
		PhoneVerified: true,
		Intent:        domain.IntentBuying,
		Timeline:      domain.TimelineImmediate,
		Source:        domain.SourceReferral,
		Status:        domain.StatusNew,
		Interactions:  []domain.Interaction{},
		SLA:           domain.SLARecord{CreatedAt: now, Compliant: true},
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       domain.SchemaVersion,
	}
	lead.MarkMilestone("followup_day_0")

	if err := st.ReplaceAll(ctx, []domain.Lead{lead}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	loaded, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(loaded))
	}

	got := loaded[0]
	if got.ID != lead.ID || got.Name != lead.Name || got.Phone != lead.Phone {
		t.Fatalf("identity fields did not round-trip: %+v", got)
	}
	if got.Email == nil || *got.Email != email {
		t.Fatal("email did not round-trip")
	}
	if !got.SLA.CreatedAt.Equal(now) {
		t.Fatalf("sla createdAt did not round-trip: %v", got.SLA.CreatedAt)
	}
	if !got.HasMilestone("followup_day_0") {
		t.Fatal("milestone set did not round-trip")
	}
}

func TestReplaceAllOverwritesWholeCollection(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := domain.Lead{ID: uuid.New(), Name: "First", Status: domain.StatusNew}
	second := domain.Lead{ID: uuid.New(), Name: "Second", Status: domain.StatusNew}

	if err := st.ReplaceAll(ctx, []domain.Lead{first, second}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if err := st.ReplaceAll(ctx, []domain.Lead{second}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	loaded, err := st.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != second.ID {
		t.Fatalf("expected only the second lead to remain, got %d leads", len(loaded))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	loaded, err := st.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected nil settings before any save")
	}

	settings := Settings{
		SLAFirstContactHours:  4,
		SLAQualificationHours: 36,
		SLAConversionHours:    72,
		WeightContactQuality:  30,
		WeightIntentClarity:   20,
		WeightBudgetRealism:   20,
		WeightTimelineUrgency: 15,
		WeightSourceQuality:   15,
		AutoArchiveDays:       60,
	}
	if err := st.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	loaded, err = st.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded == nil || *loaded != settings {
		t.Fatalf("settings did not round-trip: %+v", loaded)
	}
}

func TestSchedulerStateRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	loaded, err := st.LoadSchedulerState(ctx)
	if err != nil {
		t.Fatalf("LoadSchedulerState: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected nil scheduler state before any save")
	}

	ran := time.Date(2026, time.April, 2, 8, 30, 0, 0, time.UTC)
	state := SchedulerState{LastRun: &ran, TotalTasksExecuted: 17}
	if err := st.SaveSchedulerState(ctx, state); err != nil {
		t.Fatalf("SaveSchedulerState: %v", err)
	}

	loaded, err = st.LoadSchedulerState(ctx)
	if err != nil {
		t.Fatalf("LoadSchedulerState: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected persisted scheduler state")
	}
	if loaded.TotalTasksExecuted != 17 {
		t.Fatalf("expected 17 tasks, got %d", loaded.TotalTasksExecuted)
	}
	if loaded.LastRun == nil || !loaded.LastRun.Equal(ran) {
		t.Fatalf("lastRun did not round-trip: %v", loaded.LastRun)
	}
}
