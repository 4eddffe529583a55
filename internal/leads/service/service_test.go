package service

import (
	"context"
	"testing"
	"time"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/scoring"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/leads/transport"
	"agency_portal_backend/internal/store"
	"agency_portal_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var testStart = time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store store.LeadStore
	now   *time.Time
	actor Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	st := store.NewRedisStoreFromClient(client)
	now := testStart

	defaults := Defaults{
		Weights:         scoring.DefaultWeights(),
		Targets:         sla.DefaultTargets(),
		AutoArchiveDays: 30,
	}
	f := &fixture{
		store: st,
		now:   &now,
		actor: Actor{ID: uuid.New(), Name: "Layla"},
	}
	f.svc = New(st, nil, defaults, nil).WithClock(func() time.Time { return *f.now })
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.now = f.now.Add(d)
}

func (f *fixture) createLead(t *testing.T, req transport.CreateLeadRequest) domain.Lead {
	t.Helper()
	lead, err := f.svc.Create(context.Background(), req, f.actor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return lead
}

func basicCreateRequest() transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		Name:     "Omar Farouk",
		Phone:    "+971501112233",
		Intent:   domain.IntentBuying,
		Timeline: domain.TimelineWithin1Month,
		Source:   domain.SourceWebsite,
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), transport.CreateLeadRequest{Name: "  "}, f.actor)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestCreateInitializesLead(t *testing.T) {
	f := newFixture(t)

	lead := f.createLead(t, basicCreateRequest())

	if lead.Status != domain.StatusNew {
		t.Fatalf("expected status new, got %s", lead.Status)
	}
	if lead.Score <= 0 {
		t.Fatal("expected an initial score")
	}
	if lead.Priority == "" {
		t.Fatal("expected a priority tier")
	}
	if !lead.SLA.Compliant {
		t.Fatal("expected a fresh lead to be SLA compliant")
	}
	if !lead.SLA.CreatedAt.Equal(testStart) {
		t.Fatalf("expected SLA clock anchored at creation, got %v", lead.SLA.CreatedAt)
	}
	if len(lead.Interactions) != 0 {
		t.Fatal("expected an empty interaction log")
	}
	if lead.CreatedByID != f.actor.ID {
		t.Fatal("expected creator recorded")
	}
}

func TestCreateDefaultsUnknownEnums(t *testing.T) {
	f := newFixture(t)

	lead := f.createLead(t, transport.CreateLeadRequest{Name: "No Info", Phone: "0501234567"})

	if lead.Intent != domain.IntentUnknown {
		t.Fatalf("expected unknown intent, got %s", lead.Intent)
	}
	if lead.Timeline != domain.TimelineUnknown {
		t.Fatalf("expected unknown timeline, got %s", lead.Timeline)
	}
	if lead.Source != domain.SourceOther {
		t.Fatalf("expected source other, got %s", lead.Source)
	}
}

func TestFirstInteractionStampsContactAndAdvances(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	f.advance(1 * time.Hour)
	updated, err := f.svc.AddInteraction(context.Background(), lead.ID, transport.AddInteractionRequest{
		Type:      domain.InteractionCall,
		Direction: domain.DirectionOutbound,
		Summary:   "Intro call",
	}, f.actor)
	if err != nil {
		t.Fatalf("AddInteraction: %v", err)
	}

	if updated.SLA.FirstContactAt == nil {
		t.Fatal("expected first contact stamped")
	}
	if updated.Status != domain.StatusQualifying {
		t.Fatalf("expected auto-advance to qualifying, got %s", updated.Status)
	}
	if len(updated.Interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(updated.Interactions))
	}

	// A later interaction must not move the stamp.
	stamp := *updated.SLA.FirstContactAt
	f.advance(2 * time.Hour)
	updated, err = f.svc.AddInteraction(context.Background(), lead.ID, transport.AddInteractionRequest{
		Type:      domain.InteractionWhatsApp,
		Direction: domain.DirectionInbound,
		Summary:   "Asked for listings",
	}, f.actor)
	if err != nil {
		t.Fatalf("AddInteraction: %v", err)
	}
	if !updated.SLA.FirstContactAt.Equal(stamp) {
		t.Fatal("first contact stamp must be set once")
	}
}

func TestNoteInteractionDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	updated, err := f.svc.AddInteraction(context.Background(), lead.ID, transport.AddInteractionRequest{
		Type:      domain.InteractionNote,
		Direction: domain.DirectionOutbound,
		Summary:   "Internal note",
	}, f.actor)
	if err != nil {
		t.Fatalf("AddInteraction: %v", err)
	}

	if updated.Status != domain.StatusNew {
		t.Fatalf("a note must not advance status, got %s", updated.Status)
	}
	if updated.SLA.FirstContactAt != nil {
		t.Fatal("a note must not count as first contact")
	}
}

func TestUpdateStatusStampsQualified(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	qualified := domain.StatusQualified
	f.advance(4 * time.Hour)
	updated, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Status: &qualified}, f.actor)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Status != domain.StatusQualified {
		t.Fatalf("expected qualified, got %s", updated.Status)
	}
	if updated.SLA.QualifiedAt == nil {
		t.Fatal("expected qualification stamped")
	}
}

func TestUpdateRejectsBackwardTransition(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	qualified := domain.StatusQualified
	if _, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Status: &qualified}, f.actor); err != nil {
		t.Fatalf("Update: %v", err)
	}

	back := domain.StatusNew
	_, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Status: &back}, f.actor)
	if err == nil {
		t.Fatal("expected backward transition to be rejected")
	}
}

func TestUpdateRecomputesScoreOnIntentChange(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, transport.CreateLeadRequest{Name: "Cold Lead", Phone: "0501234567"})
	if lead.ScoreBreakdown.IntentClarity != 0 {
		t.Fatalf("expected zero intent factor on unknown, got %d", lead.ScoreBreakdown.IntentClarity)
	}

	buying := domain.IntentBuying
	updated, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Intent: &buying}, f.actor)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ScoreBreakdown.IntentClarity == 0 {
		t.Fatal("expected intent factor recomputed after intent change")
	}
	if updated.Score <= lead.Score {
		t.Fatalf("expected score to rise, %d -> %d", lead.Score, updated.Score)
	}
}

func TestTerminalLeadIsImmutable(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	if _, err := f.svc.MarkLost(context.Background(), lead.ID, transport.MarkLostRequest{Reason: "budget"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	name := "New Name"
	_, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Name: &name}, f.actor)
	if err == nil {
		t.Fatal("expected edits to a lost lead to be rejected")
	}
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict kind, got %v", err)
	}
}

func TestLostLeadCanBeArchived(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	if _, err := f.svc.MarkLost(context.Background(), lead.ID, transport.MarkLostRequest{Reason: "went quiet"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}
	archived, err := f.svc.Archive(context.Background(), lead.ID, f.actor)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Status != domain.StatusArchived {
		t.Fatalf("expected archived, got %s", archived.Status)
	}
}

func TestReactivateLostLeadStartsOver(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	if _, err := f.svc.MarkLost(context.Background(), lead.ID, transport.MarkLostRequest{Reason: "timing"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	revived, err := f.svc.Reactivate(context.Background(), lead.ID, f.actor)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if revived.Status != domain.StatusNew {
		t.Fatalf("expected new, got %s", revived.Status)
	}
	if revived.LostReason != nil {
		t.Fatal("expected lost reason cleared")
	}
	if len(revived.Interactions) == 0 {
		t.Fatal("expected an audit note on reactivation")
	}
}

func TestRecordRoutingConvertsQualifiedLead(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	qualified := domain.StatusQualified
	if _, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Status: &qualified}, f.actor); err != nil {
		t.Fatalf("Update: %v", err)
	}

	routed := domain.RoutedTo{ContactID: uuid.New()}
	converted, err := f.svc.RecordRouting(context.Background(), lead.ID, routed, "Converted to buyer contact", f.actor)
	if err != nil {
		t.Fatalf("RecordRouting: %v", err)
	}

	if converted.Status != domain.StatusConverted {
		t.Fatalf("expected converted, got %s", converted.Status)
	}
	if converted.RoutedTo == nil || converted.RoutedTo.ContactID != routed.ContactID {
		t.Fatal("expected routing record persisted")
	}
	if converted.RoutedTo.ConvertedByID != f.actor.ID {
		t.Fatal("expected converting actor recorded")
	}
	if converted.SLA.ConvertedAt == nil {
		t.Fatal("expected conversion milestone stamped")
	}
	if len(converted.Interactions) == 0 {
		t.Fatal("expected a conversion summary note")
	}

	// Routing is set at most once.
	if _, err := f.svc.RecordRouting(context.Background(), lead.ID, routed, "again", f.actor); err == nil {
		t.Fatal("expected second conversion to be rejected")
	}
}

func TestRecordRoutingRequiresQualified(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	_, err := f.svc.RecordRouting(context.Background(), lead.ID, domain.RoutedTo{ContactID: uuid.New()}, "note", f.actor)
	if err == nil {
		t.Fatal("expected conversion of a new lead to be rejected")
	}
}

func TestDeleteOnlyClosedLeads(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, basicCreateRequest())

	if err := f.svc.Delete(context.Background(), lead.ID); err == nil {
		t.Fatal("expected delete of an active lead to be rejected")
	}

	if _, err := f.svc.MarkLost(context.Background(), lead.ID, transport.MarkLostRequest{Reason: "dup"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}
	if err := f.svc.Delete(context.Background(), lead.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), lead.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBulkSetStatusReportsPerLead(t *testing.T) {
	f := newFixture(t)
	first := f.createLead(t, basicCreateRequest())
	second := f.createLead(t, transport.CreateLeadRequest{Name: "Second Lead", Phone: "0502223344"})

	// Park the second lead where the transition will fail.
	if _, err := f.svc.MarkLost(context.Background(), second.ID, transport.MarkLostRequest{Reason: "gone"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}
	missing := uuid.New()

	result, err := f.svc.BulkSetStatus(context.Background(), transport.BulkStatusRequest{
		IDs:    []uuid.UUID{first.ID, second.ID, missing},
		Status: domain.StatusQualifying,
	})
	if err != nil {
		t.Fatalf("BulkSetStatus: %v", err)
	}

	if result.Updated != 1 {
		t.Fatalf("expected 1 update, got %d", result.Updated)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %+v", result.Failed)
	}

	moved, err := f.svc.Get(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if moved.Status != domain.StatusQualifying {
		t.Fatalf("expected first lead moved, got %s", moved.Status)
	}
}

func TestBulkAssign(t *testing.T) {
	f := newFixture(t)
	first := f.createLead(t, basicCreateRequest())
	second := f.createLead(t, transport.CreateLeadRequest{Name: "Second Lead", Phone: "0502223344"})

	agent := uuid.New()
	name := "Tariq"
	result, err := f.svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		IDs:               []uuid.UUID{first.ID, second.ID},
		AssignedAgentID:   &agent,
		AssignedAgentName: &name,
	})
	if err != nil {
		t.Fatalf("BulkAssign: %v", err)
	}
	if result.Updated != 2 || len(result.Failed) != 0 {
		t.Fatalf("expected clean bulk assign, got %+v", result)
	}

	lead, err := f.svc.Get(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if lead.AssignedAgentID == nil || *lead.AssignedAgentID != agent {
		t.Fatal("expected agent assigned")
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.advance(time.Minute)
		f.createLead(t, transport.CreateLeadRequest{
			Name:   "Buyer Lead",
			Phone:  "05011122" + string(rune('0'+i)) + "0",
			Intent: domain.IntentBuying,
		})
	}
	f.createLead(t, transport.CreateLeadRequest{Name: "Seller Lead", Phone: "0509998877", Intent: domain.IntentSelling})

	selling := domain.IntentSelling
	page, err := f.svc.List(context.Background(), transport.ListLeadsRequest{Intent: &selling})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected a single selling lead, got %d", page.Total)
	}

	page, err = f.svc.List(context.Background(), transport.ListLeadsRequest{Page: 2, PageSize: 4})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 6 || len(page.Items) != 2 || page.TotalPages != 2 {
		t.Fatalf("unexpected pagination: total=%d items=%d pages=%d", page.Total, len(page.Items), page.TotalPages)
	}

	page, err = f.svc.List(context.Background(), transport.ListLeadsRequest{Search: "seller"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected search to match one lead, got %d", page.Total)
	}
}

func TestSettingsMergeOverDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	current, err := f.svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if current.SLAFirstContactHours != 2 || current.WeightContactQuality != 20 {
		t.Fatalf("expected configured defaults, got %+v", current)
	}

	four := 4
	updated, err := f.svc.UpdateSettings(ctx, transport.UpdateSettingsRequest{SLAFirstContactHours: &four})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.SLAFirstContactHours != 4 {
		t.Fatalf("expected patched target, got %d", updated.SLAFirstContactHours)
	}
	if updated.SLAQualificationHours != 24 {
		t.Fatalf("expected untouched target preserved, got %d", updated.SLAQualificationHours)
	}

	weights, targets, _ := f.svc.ResolveSettings(ctx)
	if targets.FirstContactHours != 4 {
		t.Fatalf("expected resolved target 4, got %d", targets.FirstContactHours)
	}
	if weights.ContactQuality != 20 {
		t.Fatalf("expected default weight preserved, got %d", weights.ContactQuality)
	}
}

func TestArchiveExpiredSweepsOldClosedLeads(t *testing.T) {
	f := newFixture(t)

	old := f.createLead(t, basicCreateRequest())
	if _, err := f.svc.MarkLost(context.Background(), old.ID, transport.MarkLostRequest{Reason: "stale"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	f.advance(31 * 24 * time.Hour)
	recent := f.createLead(t, transport.CreateLeadRequest{Name: "Recent Lost", Phone: "0504445566"})
	if _, err := f.svc.MarkLost(context.Background(), recent.ID, transport.MarkLostRequest{Reason: "fresh"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	archived, err := f.svc.ArchiveExpired(context.Background())
	if err != nil {
		t.Fatalf("ArchiveExpired: %v", err)
	}
	if archived != 1 {
		t.Fatalf("expected 1 archived lead, got %d", archived)
	}

	swept, _ := f.svc.Get(context.Background(), old.ID)
	if swept.Status != domain.StatusArchived {
		t.Fatalf("expected the stale lead archived, got %s", swept.Status)
	}
	kept, _ := f.svc.Get(context.Background(), recent.ID)
	if kept.Status != domain.StatusLost {
		t.Fatalf("expected the fresh lead untouched, got %s", kept.Status)
	}
}

func TestStatsAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.createLead(t, basicCreateRequest())
	f.createLead(t, transport.CreateLeadRequest{Name: "Second", Phone: "0502223344", Intent: domain.IntentSelling})
	if _, err := f.svc.MarkLost(ctx, a.ID, transport.MarkLostRequest{Reason: "no"}, f.actor); err != nil {
		t.Fatalf("MarkLost: %v", err)
	}

	stats, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("expected 2 leads, got %d", stats.Total)
	}
	if stats.ByStatus["lost"] != 1 || stats.ByStatus["new"] != 1 {
		t.Fatalf("unexpected status counts: %+v", stats.ByStatus)
	}
	if stats.ByIntent["selling"] != 1 {
		t.Fatalf("unexpected intent counts: %+v", stats.ByIntent)
	}
	if stats.AverageScore <= 0 {
		t.Fatal("expected a positive average score")
	}
	if stats.ConversionRatePct != 0 {
		t.Fatalf("expected 0%% conversion with one lost closed lead, got %v", stats.ConversionRatePct)
	}
}
