package automation

import (
	"context"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/platform/logger"
)

// Notifier delivers SLA breach alerts to whoever should chase the lead.
// Delivery channels (email, chat) plug in behind this interface; the
// default implementation writes to the structured log.
type Notifier interface {
	SLABreach(ctx context.Context, lead domain.Lead)
}

// LogNotifier records breaches in the application log.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SLABreach(ctx context.Context, lead domain.Lead) {
	if n.log == nil {
		return
	}
	n.log.Warn("sla breach: first contact overdue",
		"leadId", lead.ID,
		"name", lead.Name,
		"overdueByHours", lead.SLA.OverdueByHours,
		"assignedAgentId", lead.AssignedAgentID,
	)
}

var _ Notifier = (*LogNotifier)(nil)
