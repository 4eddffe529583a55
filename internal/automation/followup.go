package automation

import (
	"context"
	"fmt"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/scoring"

	"github.com/google/uuid"
)

// MilestoneKey names the follow-up milestone for a given day offset.
func MilestoneKey(day int) string {
	return fmt.Sprintf("followup_day_%d", day)
}

// runFollowUpPass records the scheduled follow-up touchpoints. Each
// configured day offset fires at most once per lead; the milestone set makes
// reprocessing a cycle, or catching up after downtime, idempotent. Reaching
// the final offset also reclassifies the lead's timeline as long-term.
func (s *Scheduler) runFollowUpPass(ctx context.Context) (int, error) {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	weights, _, _ := s.leads.ResolveSettings(ctx)
	now := s.clock.Now().UTC()
	finalDay := s.cfg.FollowUpDays[len(s.cfg.FollowUpDays)-1]

	tasks := 0
	changed := false
	for i := range leads {
		lead := &leads[i]
		if !lead.IsActive() {
			continue
		}

		age := int(now.Sub(lead.CreatedAt).Hours() / 24)
		for _, day := range s.cfg.FollowUpDays {
			if age < day {
				break
			}
			key := MilestoneKey(day)
			if lead.HasMilestone(key) {
				continue
			}
			lead.MarkMilestone(key)

			summary := fmt.Sprintf("Automated follow-up sent (day %d)", day)
			lead.Interactions = append(lead.Interactions, domain.Interaction{
				ID:         uuid.New(),
				Type:       domain.InteractionEmail,
				Direction:  domain.DirectionOutbound,
				Summary:    summary,
				ActorName:  "automation",
				OccurredAt: now,
			})

			if day == finalDay && lead.Timeline != domain.TimelineLongTerm {
				lead.Timeline = domain.TimelineLongTerm
				result := scoring.Score(*lead, weights)
				lead.Score = result.Total
				lead.ScoreBreakdown = result.Breakdown
				lead.Priority = result.Priority
			}

			lead.UpdatedAt = now
			changed = true
			tasks++

			if s.bus != nil {
				s.bus.Publish(ctx, events.FollowUpRecorded{
					BaseEvent: events.NewBaseEvent(),
					LeadID:    lead.ID,
					Milestone: key,
				})
			}
		}
	}

	if !changed {
		return 0, nil
	}
	if err := s.store.ReplaceAll(ctx, leads); err != nil {
		return 0, err
	}
	return tasks, nil
}
