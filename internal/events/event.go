// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"agency_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Intent      string    `json:"intent"`
	Source      string    `json:"source"`
	Score       int       `json:"score"`
	Priority    string    `json:"priority"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadStatusChanged is published when a lead moves through its lifecycle.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadConverted is published after a successful conversion.
type LeadConverted struct {
	BaseEvent
	LeadID             uuid.UUID  `json:"leadId"`
	ContactID          uuid.UUID  `json:"contactId"`
	BuyerRequirementID *uuid.UUID `json:"buyerRequirementId,omitempty"`
	RentRequirementID  *uuid.UUID `json:"rentRequirementId,omitempty"`
	PropertyID         *uuid.UUID `json:"propertyId,omitempty"`
	InvestorID         *uuid.UUID `json:"investorId,omitempty"`
	ActorID            uuid.UUID  `json:"actorId"`
	Warnings           []string   `json:"warnings,omitempty"`
}

func (e LeadConverted) EventName() string { return "leads.converted" }

// LeadSLABreached is published when the automation loop finds a new lead
// past its first-contact target with no contact logged.
type LeadSLABreached struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	Name           string    `json:"name"`
	OverdueByHours int       `json:"overdueByHours"`
}

func (e LeadSLABreached) EventName() string { return "leads.sla.breached" }

// FollowUpRecorded is published when the follow-up pass records an
// automated message for a lead.
type FollowUpRecorded struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	Milestone string    `json:"milestone"`
}

func (e FollowUpRecorded) EventName() string { return "leads.followup.recorded" }
