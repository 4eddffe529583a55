// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stored on every lead so older serialized records can be
// migrated when the shape changes.
const SchemaVersion = 2

// Intent is what the inquirer wants to do.
type Intent string

const (
	IntentBuying     Intent = "buying"
	IntentSelling    Intent = "selling"
	IntentRenting    Intent = "renting"
	IntentLeasingOut Intent = "leasing_out"
	IntentInvesting  Intent = "investing"
	IntentUnknown    Intent = "unknown"
)

// Timeline is how soon the inquirer intends to act.
type Timeline string

const (
	TimelineImmediate     Timeline = "immediate"
	TimelineWithin1Month  Timeline = "within_1_month"
	TimelineWithin3Months Timeline = "within_3_months"
	TimelineWithin6Months Timeline = "within_6_months"
	TimelineLongTerm      Timeline = "long_term"
	TimelineUnknown       Timeline = "unknown"
)

// Source is the acquisition channel the lead arrived through.
type Source string

const (
	SourceWebsite       Source = "website"
	SourcePortal        Source = "portal"
	SourceReferral      Source = "referral"
	SourceWalkIn        Source = "walk_in"
	SourceSocialMedia   Source = "social_media"
	SourceWhatsApp      Source = "whatsapp"
	SourcePhoneCall     Source = "phone_call"
	SourceColdCall      Source = "cold_call"
	SourceEmailCampaign Source = "email_campaign"
	SourceSMSCampaign   Source = "sms_campaign"
	SourceEvent         Source = "event"
	SourcePartner       Source = "partner"
	SourceOther         Source = "other"
)

// Status is the lead lifecycle state.
type Status string

const (
	StatusNew        Status = "new"
	StatusQualifying Status = "qualifying"
	StatusQualified  Status = "qualified"
	StatusConverted  Status = "converted"
	StatusLost       Status = "lost"
	StatusArchived   Status = "archived"
)

// Priority is the coarse tier derived from the qualification score.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// InteractionType classifies a logged touchpoint with the lead.
type InteractionType string

const (
	InteractionCall     InteractionType = "call"
	InteractionEmail    InteractionType = "email"
	InteractionWhatsApp InteractionType = "whatsapp"
	InteractionMeeting  InteractionType = "meeting"
	InteractionSMS      InteractionType = "sms"
	InteractionNote     InteractionType = "note"
)

// Direction is whether the lead reached us or we reached the lead.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Details holds intent-dependent qualification data. Which fields are
// populated depends on Intent; unused fields stay nil.
type Details struct {
	BudgetMin        *float64 `json:"budgetMin,omitempty"`
	BudgetMax        *float64 `json:"budgetMax,omitempty"`
	PreferredAreas   []string `json:"preferredAreas,omitempty"`
	PropertyType     *string  `json:"propertyType,omitempty"`
	Bedrooms         *int     `json:"bedrooms,omitempty"`
	PropertyAddress  *string  `json:"propertyAddress,omitempty"`
	ExpectedPrice    *float64 `json:"expectedPrice,omitempty"`
	MonthlyBudget    *float64 `json:"monthlyBudget,omitempty"`
	ExpectedRent     *float64 `json:"expectedRent,omitempty"`
	InvestmentBudget *float64 `json:"investmentBudget,omitempty"`
	RiskTolerance    *string  `json:"riskTolerance,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
}

// ScoreBreakdown is the five-factor decomposition of the qualification score.
type ScoreBreakdown struct {
	ContactQuality  int `json:"contactQuality"`
	IntentClarity   int `json:"intentClarity"`
	BudgetRealism   int `json:"budgetRealism"`
	TimelineUrgency int `json:"timelineUrgency"`
	SourceQuality   int `json:"sourceQuality"`
}

// Interaction is one entry in the lead's append-only interaction log.
type Interaction struct {
	ID              uuid.UUID       `json:"id"`
	Type            InteractionType `json:"type"`
	Direction       Direction       `json:"direction"`
	Summary         string          `json:"summary"`
	Notes           *string         `json:"notes,omitempty"`
	DurationMinutes *int            `json:"durationMinutes,omitempty"`
	ActorID         uuid.UUID       `json:"actorId"`
	ActorName       string          `json:"actorName,omitempty"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

// SLARecord carries the milestone timestamps and the derived compliance pair.
// Compliant and OverdueByHours are recomputed on every mutation and every
// automation cycle; the timestamps themselves are only ever set, never cleared.
type SLARecord struct {
	CreatedAt      time.Time  `json:"createdAt"`
	FirstContactAt *time.Time `json:"firstContactAt,omitempty"`
	QualifiedAt    *time.Time `json:"qualifiedAt,omitempty"`
	ConvertedAt    *time.Time `json:"convertedAt,omitempty"`
	Compliant      bool       `json:"compliant"`
	OverdueByHours int        `json:"overdueByHours"`
}

// RoutedTo records the downstream entities a converted lead produced.
// Set at most once, when the lead transitions to converted.
type RoutedTo struct {
	ContactID          uuid.UUID  `json:"contactId"`
	BuyerRequirementID *uuid.UUID `json:"buyerRequirementId,omitempty"`
	RentRequirementID  *uuid.UUID `json:"rentRequirementId,omitempty"`
	PropertyID         *uuid.UUID `json:"propertyId,omitempty"`
	InvestorID         *uuid.UUID `json:"investorId,omitempty"`
	ConvertedAt        time.Time  `json:"convertedAt"`
	ConvertedByID      uuid.UUID  `json:"convertedById"`
	ConvertedByName    string     `json:"convertedByName,omitempty"`
}

// Lead is the central entity: an inbound inquiry inside its time-boxed
// qualification window.
type Lead struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspaceId"`

	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	AltPhone      *string `json:"altPhone,omitempty"`
	Email         *string `json:"email,omitempty"`
	PhoneVerified bool    `json:"phoneVerified"`
	EmailVerified bool    `json:"emailVerified"`

	Intent   Intent   `json:"intent"`
	Timeline Timeline `json:"timeline"`
	Details  Details  `json:"details"`

	Source       Source  `json:"source"`
	SourceDetail *string `json:"sourceDetail,omitempty"`
	Campaign     *string `json:"campaign,omitempty"`
	Referrer     *string `json:"referrer,omitempty"`

	Score          int            `json:"score"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
	Priority       Priority       `json:"priority"`

	Status     Status  `json:"status"`
	LostReason *string `json:"lostReason,omitempty"`
	LostNotes  *string `json:"lostNotes,omitempty"`

	RoutedTo     *RoutedTo     `json:"routedTo,omitempty"`
	Interactions []Interaction `json:"interactions"`
	SLA          SLARecord     `json:"sla"`

	// AutomationMilestones records which scheduled automations already fired
	// (e.g. "followup_day_7") so reprocessing a cycle is idempotent.
	AutomationMilestones []string `json:"automationMilestones,omitempty"`

	AssignedAgentID   *uuid.UUID `json:"assignedAgentId,omitempty"`
	AssignedAgentName *string    `json:"assignedAgentName,omitempty"`
	CreatedByID       uuid.UUID  `json:"createdById"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	Version           int        `json:"version"`
}

// IsActive reports whether the lead is still inside its qualification window.
func (l *Lead) IsActive() bool {
	switch l.Status {
	case StatusNew, StatusQualifying, StatusQualified:
		return true
	}
	return false
}

// HasMilestone reports whether the named automation milestone already fired.
func (l *Lead) HasMilestone(key string) bool {
	for _, fired := range l.AutomationMilestones {
		if fired == key {
			return true
		}
	}
	return false
}

// MarkMilestone records the named automation milestone. No-op if present.
func (l *Lead) MarkMilestone(key string) {
	if l.HasMilestone(key) {
		return
	}
	l.AutomationMilestones = append(l.AutomationMilestones, key)
}

// ValidIntents lists every accepted intent value.
func ValidIntents() []Intent {
	return []Intent{IntentBuying, IntentSelling, IntentRenting, IntentLeasingOut, IntentInvesting, IntentUnknown}
}

// ValidSources lists every accepted source channel.
func ValidSources() []Source {
	return []Source{
		SourceWebsite, SourcePortal, SourceReferral, SourceWalkIn, SourceSocialMedia,
		SourceWhatsApp, SourcePhoneCall, SourceColdCall, SourceEmailCampaign,
		SourceSMSCampaign, SourceEvent, SourcePartner, SourceOther,
	}
}
