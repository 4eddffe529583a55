package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/leads/transport"
	"agency_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// AddInteraction appends a touchpoint to the lead's log. The first real
// contact stamps the first-contact SLA milestone, and any non-note
// interaction on a brand-new lead advances it to qualifying.
func (s *Service) AddInteraction(ctx context.Context, id uuid.UUID, req transport.AddInteractionRequest, actor Actor) (domain.Lead, error) {
	_, targets, _ := s.ResolveSettings(ctx)
	now := s.now().UTC()

	var statusAdvanced bool
	updated, err := s.mutate(ctx, id, func(lead *domain.Lead) error {
		if domain.IsTerminal(lead.Status) {
			return apperr.Conflict(fmt.Sprintf("lead is %s; its interaction log is closed", lead.Status))
		}

		lead.Interactions = append(lead.Interactions, domain.Interaction{
			ID:              uuid.New(),
			Type:            req.Type,
			Direction:       req.Direction,
			Summary:         req.Summary,
			Notes:           req.Notes,
			DurationMinutes: req.DurationMinutes,
			ActorID:         actor.ID,
			ActorName:       actor.Name,
			OccurredAt:      now,
		})

		if req.Type != domain.InteractionNote {
			if lead.SLA.FirstContactAt == nil {
				firstContact := now
				lead.SLA.FirstContactAt = &firstContact
			}
			if lead.Status == domain.StatusNew {
				lead.Status = domain.StatusQualifying
				statusAdvanced = true
			}
		}

		lead.SLA = sla.Apply(*lead, now, targets)
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if statusAdvanced && s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			OldStatus: string(domain.StatusNew),
			NewStatus: string(domain.StatusQualifying),
			ActorID:   actor.ID,
		})
	}

	return updated, nil
}

// MarkLost diverts the lead out of the pipeline with a mandatory reason.
func (s *Service) MarkLost(ctx context.Context, id uuid.UUID, req transport.MarkLostRequest, actor Actor) (domain.Lead, error) {
	var oldStatus domain.Status
	updated, err := s.mutate(ctx, id, func(lead *domain.Lead) error {
		if !domain.CanTransition(lead.Status, domain.StatusLost) {
			return apperr.Conflict(fmt.Sprintf("cannot mark a %s lead as lost", lead.Status))
		}
		oldStatus = lead.Status
		lead.Status = domain.StatusLost
		reason := strings.TrimSpace(req.Reason)
		lead.LostReason = &reason
		lead.LostNotes = req.Notes
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			OldStatus: string(oldStatus),
			NewStatus: string(domain.StatusLost),
			ActorID:   actor.ID,
		})
	}

	return updated, nil
}

// Archive moves a closed lead (converted or lost) into the archive.
func (s *Service) Archive(ctx context.Context, id uuid.UUID, actor Actor) (domain.Lead, error) {
	var oldStatus domain.Status
	updated, err := s.mutate(ctx, id, func(lead *domain.Lead) error {
		if !domain.CanTransition(lead.Status, domain.StatusArchived) {
			return apperr.Conflict(fmt.Sprintf("cannot archive a %s lead; only converted or lost leads can be archived", lead.Status))
		}
		oldStatus = lead.Status
		lead.Status = domain.StatusArchived
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    updated.ID,
			OldStatus: string(oldStatus),
			NewStatus: string(domain.StatusArchived),
			ActorID:   actor.ID,
		})
	}

	return updated, nil
}

// Reactivate pulls a lead back out of lost or archived. A lead that was
// already routed returns to converted (its downstream entities still exist);
// anything else starts over as new. The move is recorded in the interaction
// log so the audit trail explains the resurrection.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, actor Actor) (domain.Lead, error) {
	now := s.now().UTC()

	var oldStatus, newStatus domain.Status
	updated, err := s.mutate(ctx, id, func(lead *domain.Lead) error {
		if lead.Status != domain.StatusLost && lead.Status != domain.StatusArchived {
			return apperr.Conflict(fmt.Sprintf("cannot reactivate a %s lead", lead.Status))
		}
		oldStatus = lead.Status
		if lead.RoutedTo != nil {
			lead.Status = domain.StatusConverted
		} else {
			lead.Status = domain.StatusNew
			lead.LostReason = nil
			lead.LostNotes = nil
		}
		newStatus = lead.Status

		summary := fmt.Sprintf("Lead reactivated from %s by %s", oldStatus, actor.Name)
		lead.Interactions = append(lead.Interactions, domain.Interaction{
			ID:         uuid.New(),
			Type:       domain.InteractionNote,
			Direction:  domain.DirectionOutbound,
			Summary:    summary,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if s.bus != nil {
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

// Assign sets or clears the owning agent on a single lead.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID, agentName *string) (domain.Lead, error) {
	return s.mutate(ctx, id, func(lead *domain.Lead) error {
		if domain.IsTerminal(lead.Status) {
			return apperr.Conflict(fmt.Sprintf("lead is %s and can no longer be reassigned", lead.Status))
		}
		lead.AssignedAgentID = agentID
		lead.AssignedAgentName = agentName
		return nil
	})
}

// RecordRouting is the conversion engine's write-back: it stamps the routing
// record, moves the lead to converted, marks the conversion SLA milestone,
// and appends a summary note. The routing record is set at most once.
func (s *Service) RecordRouting(ctx context.Context, id uuid.UUID, routed domain.RoutedTo, summary string, actor Actor) (domain.Lead, error) {
	_, targets, _ := s.ResolveSettings(ctx)
	now := s.now().UTC()

	updated, err := s.mutate(ctx, id, func(lead *domain.Lead) error {
		if lead.RoutedTo != nil {
			return apperr.Conflict("lead has already been converted")
		}
		if !domain.CanTransition(lead.Status, domain.StatusConverted) {
			return apperr.Conflict(fmt.Sprintf("cannot convert a %s lead; it must be qualified first", lead.Status))
		}

		routed.ConvertedAt = now
		routed.ConvertedByID = actor.ID
		routed.ConvertedByName = actor.Name
		lead.RoutedTo = &routed
		lead.Status = domain.StatusConverted

		convertedAt := now
		lead.SLA.ConvertedAt = &convertedAt
		lead.SLA = sla.Apply(*lead, now, targets)

		lead.Interactions = append(lead.Interactions, domain.Interaction{
			ID:         uuid.New(),
			Type:       domain.InteractionNote,
			Direction:  domain.DirectionOutbound,
			Summary:    summary,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return domain.Lead{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadConverted{
			BaseEvent:          events.NewBaseEvent(),
			LeadID:             updated.ID,
			ContactID:          routed.ContactID,
			BuyerRequirementID: routed.BuyerRequirementID,
			RentRequirementID:  routed.RentRequirementID,
			PropertyID:         routed.PropertyID,
			InvestorID:         routed.InvestorID,
			ActorID:            actor.ID,
		})
	}

	return updated, nil
}

// ArchiveExpired sweeps terminal leads whose last update is older than the
// retention window into the archive. Returns how many leads were archived.
func (s *Service) ArchiveExpired(ctx context.Context) (int, error) {
	_, _, archiveDays := s.ResolveSettings(ctx)
	if archiveDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-time.Duration(archiveDays) * 24 * time.Hour)

	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	archived := 0
	for i := range leads {
		switch leads[i].Status {
		case domain.StatusConverted, domain.StatusLost:
		default:
			continue
		}
		if leads[i].UpdatedAt.After(cutoff) {
			continue
		}
		leads[i].Status = domain.StatusArchived
		leads[i].UpdatedAt = s.now().UTC()
		archived++
	}
	if archived == 0 {
		return 0, nil
	}

	return archived, s.store.ReplaceAll(ctx, leads)
}
