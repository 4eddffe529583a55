package automation

import (
	"context"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/sla"
)

const breachMilestone = "sla_breach_first_contact"

// runSLAPass recomputes the compliance pair on every active lead and raises
// a one-time notification for new leads that blew through the first-contact
// target without anyone reaching out. It also sweeps expired terminal leads
// into the archive.
func (s *Scheduler) runSLAPass(ctx context.Context) (int, error) {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	_, targets, _ := s.leads.ResolveSettings(ctx)
	now := s.clock.Now().UTC()

	tasks := 0
	changed := false
	for i := range leads {
		lead := &leads[i]
		if !lead.IsActive() {
			continue
		}

		before := lead.SLA
		lead.SLA = sla.Apply(*lead, now, targets)
		if lead.SLA.Compliant != before.Compliant || lead.SLA.OverdueByHours != before.OverdueByHours {
			lead.UpdatedAt = now
			changed = true
		}

		breached := lead.Status == domain.StatusNew &&
			lead.SLA.FirstContactAt == nil &&
			!lead.SLA.Compliant &&
			!lead.HasMilestone(breachMilestone)
		if !breached {
			continue
		}

		lead.MarkMilestone(breachMilestone)
		lead.UpdatedAt = now
		changed = true
		tasks++

		if s.notify != nil {
			s.notify.SLABreach(ctx, *lead)
		}
		if s.bus != nil {
			s.bus.Publish(ctx, events.LeadSLABreached{
				BaseEvent:      events.NewBaseEvent(),
				LeadID:         lead.ID,
				Name:           lead.Name,
				OverdueByHours: lead.SLA.OverdueByHours,
			})
		}
	}

	if changed {
		if err := s.store.ReplaceAll(ctx, leads); err != nil {
			return 0, err
		}
	}

	archived, err := s.leads.ArchiveExpired(ctx)
	if err != nil {
		return tasks, err
	}
	return tasks + archived, nil
}
