package service

import (
	"context"
	"fmt"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/leads/transport"

	"github.com/google/uuid"
)

// BulkAssign assigns every listed lead to one agent. Leads that cannot be
// reassigned are reported per id; the rest still go through.
func (s *Service) BulkAssign(ctx context.Context, req transport.BulkAssignRequest) (transport.BulkResult, error) {
	return s.bulkApply(ctx, req.IDs, func(lead *domain.Lead) error {
		if domain.IsTerminal(lead.Status) {
			return fmt.Errorf("lead is %s and can no longer be reassigned", lead.Status)
		}
		lead.AssignedAgentID = req.AssignedAgentID
		lead.AssignedAgentName = req.AssignedAgentName
		return nil
	}, nil)
}

// BulkSetStatus applies one status transition to every listed lead. Invalid
// transitions fail per id without blocking the others.
func (s *Service) BulkSetStatus(ctx context.Context, req transport.BulkStatusRequest) (transport.BulkResult, error) {
	_, targets, _ := s.ResolveSettings(ctx)
	now := s.now().UTC()

	return s.bulkApply(ctx, req.IDs, func(lead *domain.Lead) error {
		if lead.Status == req.Status {
			return nil
		}
		if !domain.CanTransition(lead.Status, req.Status) {
			return fmt.Errorf("cannot move lead from %s to %s", lead.Status, req.Status)
		}
		lead.Status = req.Status
		if lead.Status == domain.StatusQualified && lead.SLA.QualifiedAt == nil {
			qualifiedAt := now
			lead.SLA.QualifiedAt = &qualifiedAt
		}
		return nil
	}, func(lead *domain.Lead) {
		lead.SLA = sla.Apply(*lead, now, targets)
	})
}

// bulkApply runs fn against each requested lead in one load/swap cycle.
// A single collection write covers every successful change; failures are
// collected per id and never abort the batch.
func (s *Service) bulkApply(ctx context.Context, ids []uuid.UUID, fn func(*domain.Lead) error, after func(*domain.Lead)) (transport.BulkResult, error) {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return transport.BulkResult{}, err
	}

	index := make(map[uuid.UUID]int, len(leads))
	for i := range leads {
		index[leads[i].ID] = i
	}

	var result transport.BulkResult
	now := s.now().UTC()
	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			result.Failed = append(result.Failed, transport.BulkFailure{ID: id, Reason: "lead not found"})
			continue
		}
		if err := fn(&leads[i]); err != nil {
			result.Failed = append(result.Failed, transport.BulkFailure{ID: id, Reason: err.Error()})
			continue
		}
		if after != nil {
			after(&leads[i])
		}
		leads[i].UpdatedAt = now
		result.Updated++
	}

	if result.Updated > 0 {
		if err := s.store.ReplaceAll(ctx, leads); err != nil {
			return transport.BulkResult{}, err
		}
	}
	return result, nil
}
