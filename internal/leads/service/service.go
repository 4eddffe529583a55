// Package service is the single authority for lead mutation.
//
// Every mutating operation loads the collection, applies the change, derives
// score and SLA state, and swaps the collection back — the storage boundary
// replaces the whole array atomically, which is what keeps the single-writer
// model consistent.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/scoring"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/leads/transport"
	"agency_portal_backend/internal/store"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"
	"agency_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// Actor identifies who performed an operation.
type Actor struct {
	ID          uuid.UUID
	Name        string
	WorkspaceID uuid.UUID
}

// Defaults are the configured fallbacks used until an operator saves settings.
type Defaults struct {
	Weights         scoring.Weights
	Targets         sla.Targets
	AutoArchiveDays int
}

// Service handles all lead lifecycle operations.
type Service struct {
	store    store.LeadStore
	bus      events.Bus
	defaults Defaults
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new lead lifecycle service.
func New(st store.LeadStore, bus events.Bus, defaults Defaults, log *logger.Logger) *Service {
	return &Service{
		store:    st,
		bus:      bus,
		defaults: defaults,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests and the scheduler.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ResolveSettings merges stored settings over the configured defaults.
func (s *Service) ResolveSettings(ctx context.Context) (scoring.Weights, sla.Targets, int) {
	weights := s.defaults.Weights
	targets := s.defaults.Targets
	archiveDays := s.defaults.AutoArchiveDays

	stored, err := s.store.LoadSettings(ctx)
	if err != nil {
		if s.log != nil {
			s.log.StoreError("load_settings", err)
		}
		return weights, targets, archiveDays
	}
	if stored == nil {
		return weights, targets, archiveDays
	}

	weights = scoring.Weights{
		ContactQuality:  stored.WeightContactQuality,
		IntentClarity:   stored.WeightIntentClarity,
		BudgetRealism:   stored.WeightBudgetRealism,
		TimelineUrgency: stored.WeightTimelineUrgency,
		SourceQuality:   stored.WeightSourceQuality,
	}
	targets = sla.Targets{
		FirstContactHours:  stored.SLAFirstContactHours,
		QualificationHours: stored.SLAQualificationHours,
		ConversionHours:    stored.SLAConversionHours,
	}
	archiveDays = stored.AutoArchiveDays
	return weights, targets, archiveDays
}

// Create validates the intake payload and persists a new lead with status new.
// Validation failures are returned as a structured field-error list so the
// caller can render all problems at once.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, actor Actor) (domain.Lead, error) {
	var fieldErrors []apperr.FieldError
	if strings.TrimSpace(req.Name) == "" {
		fieldErrors = append(fieldErrors, apperr.FieldError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(req.Phone) == "" {
		fieldErrors = append(fieldErrors, apperr.FieldError{Field: "phone", Message: "phone is required"})
	}
	if len(fieldErrors) > 0 {
		return domain.Lead{}, apperr.ValidationFields("lead validation failed", fieldErrors)
	}

	now := s.now().UTC()
	weights, targets, _ := s.ResolveSettings(ctx)

	lead := domain.Lead{
		ID:           uuid.New(),
		WorkspaceID:  actor.WorkspaceID,
		Name:         strings.TrimSpace(req.Name),
		Phone:        phone.NormalizeE164(req.Phone),
		AltPhone:     req.AltPhone,
		Email:        req.Email,
		Intent:       req.Intent,
		Timeline:     req.Timeline,
		Source:       req.Source,
		SourceDetail: req.SourceDetail,
		Campaign:     req.Campaign,
		Referrer:     req.Referrer,
		Status:       domain.StatusNew,
		Interactions: []domain.Interaction{},
		SLA:          domain.SLARecord{CreatedAt: now, Compliant: true},
		CreatedByID:  actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      domain.SchemaVersion,
	}
	if lead.Intent == "" {
		lead.Intent = domain.IntentUnknown
	}
	if lead.Timeline == "" {
		lead.Timeline = domain.TimelineUnknown
	}
	if lead.Source == "" {
		lead.Source = domain.SourceOther
	}
	if req.Details != nil {
		lead.Details = req.Details.ToDomain()
	}
	if req.AssignedAgentID.Set {
		lead.AssignedAgentID = req.AssignedAgentID.Value
		lead.AssignedAgentName = req.AssignedAgentName
	}
	if req.InitialMessage != nil && strings.TrimSpace(*req.InitialMessage) != "" {
		lead.Details.Notes = mergeNotes(lead.Details.Notes, *req.InitialMessage)
	}

	s.rescore(&lead, weights)
	lead.SLA = sla.Apply(lead, now, targets)

	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	leads = append(leads, lead)
	if err := s.store.ReplaceAll(ctx, leads); err != nil {
		return domain.Lead{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      lead.ID,
			WorkspaceID: lead.WorkspaceID,
			Name:        lead.Name,
			Phone:       lead.Phone,
			Intent:      string(lead.Intent),
			Source:      string(lead.Source),
			Score:       lead.Score,
			Priority:    string(lead.Priority),
		})
	}

	return lead, nil
}

// Get retrieves a lead by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	for _, lead := range leads {
		if lead.ID == id {
			return lead, nil
		}
	}
	return domain.Lead{}, apperr.NotFound("lead not found")
}

// Update merges the patch into the lead, recomputing score and SLA state
// whenever one of their inputs changed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest, actor Actor) (domain.Lead, error) {
	weights, targets, _ := s.ResolveSettings(ctx)
	now := s.now().UTC()

	var oldStatus, newStatus domain.Status
	updated, err := s.mutate(ctx, id, func(lead *domain.Lead) error {
		if domain.IsTerminal(lead.Status) && !(lead.Status == domain.StatusLost && req.Status != nil && *req.Status == domain.StatusArchived) {
			return apperr.Conflict(fmt.Sprintf("lead is %s and can no longer be edited", lead.Status))
		}

		scoringChanged := applyPatch(lead, req)

		if req.Status != nil && *req.Status != lead.Status {
			if !domain.CanTransition(lead.Status, *req.Status) {
				return apperr.Validation(fmt.Sprintf("cannot move lead from %s to %s", lead.Status, *req.Status))
			}
			oldStatus, newStatus = lead.Status, *req.Status
			lead.Status = *req.Status
			if lead.Status == domain.StatusQualified && lead.SLA.QualifiedAt == nil {
				qualifiedAt := now
				lead.SLA.QualifiedAt = &qualifiedAt
			}
		}

		if scoringChanged {
			s.rescore(lead, weights)
		}
		lead.SLA = sla.Apply(*lead, now, targets)
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if newStatus != "" && s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			OldStatus: string(oldStatus),
			NewStatus: string(newStatus),
			ActorID:   actor.ID,
		})
	}

	return updated, nil
}

// Delete removes a lead from the collection. Only lost or archived leads may
// be deleted; everything else must run its lifecycle first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	for i, lead := range leads {
		if lead.ID != id {
			continue
		}
		if lead.Status != domain.StatusLost && lead.Status != domain.StatusArchived {
			return apperr.Conflict("only lost or archived leads can be deleted")
		}
		leads = append(leads[:i], leads[i+1:]...)
		return s.store.ReplaceAll(ctx, leads)
	}

	return apperr.NotFound("lead not found")
}

// List returns a filtered, sorted, paginated page of leads.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	var assignee *uuid.UUID
	if strings.TrimSpace(req.Assignee) != "" {
		parsed, err := uuid.Parse(req.Assignee)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("invalid assigneeId filter")
		}
		assignee = &parsed
	}

	filtered := make([]domain.Lead, 0, len(leads))
	search := strings.ToLower(strings.TrimSpace(req.Search))
	for _, lead := range leads {
		if req.Status != nil && lead.Status != *req.Status {
			continue
		}
		if req.Priority != nil && lead.Priority != *req.Priority {
			continue
		}
		if req.Intent != nil && lead.Intent != *req.Intent {
			continue
		}
		if req.Source != nil && lead.Source != *req.Source {
			continue
		}
		if assignee != nil && (lead.AssignedAgentID == nil || *lead.AssignedAgentID != *assignee) {
			continue
		}
		if search != "" && !matchesSearch(lead, search) {
			continue
		}
		filtered = append(filtered, lead)
	}

	sortLeads(filtered, req.SortBy, req.SortOrder)

	total := len(filtered)
	start := (req.Page - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	return transport.LeadListResponse{
		Items:      filtered[start:end],
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: (total + req.PageSize - 1) / req.PageSize,
	}, nil
}

// mutate loads the collection, applies fn to the matching lead, bumps the
// audit fields, and swaps the collection back.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*domain.Lead) error) (domain.Lead, error) {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return domain.Lead{}, err
	}

	for i := range leads {
		if leads[i].ID != id {
			continue
		}
		if err := fn(&leads[i]); err != nil {
			return domain.Lead{}, err
		}
		leads[i].UpdatedAt = s.now().UTC()
		if err := s.store.ReplaceAll(ctx, leads); err != nil {
			return domain.Lead{}, err
		}
		return leads[i], nil
	}

	return domain.Lead{}, apperr.NotFound("lead not found")
}

func (s *Service) rescore(lead *domain.Lead, weights scoring.Weights) {
	result := scoring.Score(*lead, weights)
	lead.Score = result.Total
	lead.ScoreBreakdown = result.Breakdown
	lead.Priority = result.Priority
}

// applyPatch merges the update request and reports whether any scoring input
// (verification flags, intent, timeline, details, source) changed.
func applyPatch(lead *domain.Lead, req transport.UpdateLeadRequest) bool {
	scoringChanged := false

	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone)
		lead.PhoneVerified = false
		scoringChanged = true
	}
	if req.AltPhone != nil {
		lead.AltPhone = req.AltPhone
	}
	if req.Email != nil {
		lead.Email = req.Email
		lead.EmailVerified = false
		scoringChanged = true
	}
	if req.PhoneVerified.Set {
		lead.PhoneVerified = req.PhoneVerified.Value
		scoringChanged = true
	}
	if req.EmailVerified.Set {
		lead.EmailVerified = req.EmailVerified.Value
		scoringChanged = true
	}
	if req.Intent != nil {
		lead.Intent = *req.Intent
		scoringChanged = true
	}
	if req.Timeline != nil {
		lead.Timeline = *req.Timeline
		scoringChanged = true
	}
	if req.Details != nil {
		lead.Details = req.Details.ToDomain()
		scoringChanged = true
	}
	if req.Source != nil {
		lead.Source = *req.Source
		scoringChanged = true
	}
	if req.SourceDetail != nil {
		lead.SourceDetail = req.SourceDetail
	}
	if req.Campaign != nil {
		lead.Campaign = req.Campaign
	}
	if req.Referrer != nil {
		lead.Referrer = req.Referrer
	}
	if req.AssignedAgentID.Set {
		lead.AssignedAgentID = req.AssignedAgentID.Value
		lead.AssignedAgentName = req.AssignedAgentName
	}

	return scoringChanged
}

func matchesSearch(lead domain.Lead, search string) bool {
	if strings.Contains(strings.ToLower(lead.Name), search) {
		return true
	}
	if strings.Contains(strings.ToLower(lead.Phone), search) {
		return true
	}
	if lead.Email != nil && strings.Contains(strings.ToLower(*lead.Email), search) {
		return true
	}
	return false
}

func sortLeads(leads []domain.Lead, sortBy, sortOrder string) {
	desc := !strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(leads, func(i, j int) bool {
		var less bool
		switch sortBy {
		case "score":
			less = leads[i].Score < leads[j].Score
		case "name":
			less = strings.ToLower(leads[i].Name) < strings.ToLower(leads[j].Name)
		case "updatedAt":
			less = leads[i].UpdatedAt.Before(leads[j].UpdatedAt)
		default:
			less = leads[i].CreatedAt.Before(leads[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}

func mergeNotes(existing *string, extra string) *string {
	extra = strings.TrimSpace(extra)
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return &extra
	}
	merged := *existing + "\n" + extra
	return &merged
}
