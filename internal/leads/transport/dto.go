// Package transport defines the request/response shapes for the leads API.
package transport

import (
	"agency_portal_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// DetailsPayload mirrors domain.Details for requests.
type DetailsPayload struct {
	BudgetMin        *float64 `json:"budgetMin,omitempty"`
	BudgetMax        *float64 `json:"budgetMax,omitempty" validate:"omitempty,gte=0"`
	PreferredAreas   []string `json:"preferredAreas,omitempty"`
	PropertyType     *string  `json:"propertyType,omitempty"`
	Bedrooms         *int     `json:"bedrooms,omitempty" validate:"omitempty,gte=0,lte=20"`
	PropertyAddress  *string  `json:"propertyAddress,omitempty"`
	ExpectedPrice    *float64 `json:"expectedPrice,omitempty" validate:"omitempty,gte=0"`
	MonthlyBudget    *float64 `json:"monthlyBudget,omitempty" validate:"omitempty,gte=0"`
	ExpectedRent     *float64 `json:"expectedRent,omitempty" validate:"omitempty,gte=0"`
	InvestmentBudget *float64 `json:"investmentBudget,omitempty" validate:"omitempty,gte=0"`
	RiskTolerance    *string  `json:"riskTolerance,omitempty" validate:"omitempty,oneof=low medium high"`
	Notes            *string  `json:"notes,omitempty"`
}

// ToDomain converts the payload to the domain shape.
func (p DetailsPayload) ToDomain() domain.Details {
	return domain.Details{
		BudgetMin:        p.BudgetMin,
		BudgetMax:        p.BudgetMax,
		PreferredAreas:   p.PreferredAreas,
		PropertyType:     p.PropertyType,
		Bedrooms:         p.Bedrooms,
		PropertyAddress:  p.PropertyAddress,
		ExpectedPrice:    p.ExpectedPrice,
		MonthlyBudget:    p.MonthlyBudget,
		ExpectedRent:     p.ExpectedRent,
		InvestmentBudget: p.InvestmentBudget,
		RiskTolerance:    p.RiskTolerance,
		Notes:            p.Notes,
	}
}

// CreateLeadRequest is the intake form payload.
type CreateLeadRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=200"`
	Phone        string          `json:"phone" validate:"required,min=5,max=32"`
	AltPhone     *string         `json:"altPhone,omitempty"`
	Email        *string         `json:"email,omitempty" validate:"omitempty,email"`
	Intent       domain.Intent   `json:"intent" validate:"omitempty,oneof=buying selling renting leasing_out investing unknown"`
	Timeline     domain.Timeline `json:"timeline" validate:"omitempty,oneof=immediate within_1_month within_3_months within_6_months long_term unknown"`
	Details      *DetailsPayload `json:"details,omitempty"`
	Source       domain.Source   `json:"source" validate:"omitempty,oneof=website portal referral walk_in social_media whatsapp phone_call cold_call email_campaign sms_campaign event partner other"`
	SourceDetail *string         `json:"sourceDetail,omitempty"`
	Campaign     *string         `json:"campaign,omitempty"`
	Referrer     *string         `json:"referrer,omitempty"`

	AssignedAgentID   OptionalUUID `json:"assignedAgentId,omitzero"`
	AssignedAgentName *string      `json:"assignedAgentName,omitempty"`

	InitialMessage *string `json:"initialMessage,omitempty"`
}

// UpdateLeadRequest is a partial update; nil fields are left untouched.
type UpdateLeadRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Phone    *string          `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	AltPhone *string          `json:"altPhone,omitempty"`
	Email    *string          `json:"email,omitempty" validate:"omitempty,email"`
	Intent   *domain.Intent   `json:"intent,omitempty" validate:"omitempty,oneof=buying selling renting leasing_out investing unknown"`
	Timeline *domain.Timeline `json:"timeline,omitempty" validate:"omitempty,oneof=immediate within_1_month within_3_months within_6_months long_term unknown"`
	Details  *DetailsPayload  `json:"details,omitempty"`
	Source   *domain.Source   `json:"source,omitempty" validate:"omitempty,oneof=website portal referral walk_in social_media whatsapp phone_call cold_call email_campaign sms_campaign event partner other"`

	SourceDetail *string `json:"sourceDetail,omitempty"`
	Campaign     *string `json:"campaign,omitempty"`
	Referrer     *string `json:"referrer,omitempty"`

	PhoneVerified OptionalBool `json:"phoneVerified,omitzero"`
	EmailVerified OptionalBool `json:"emailVerified,omitzero"`

	Status *domain.Status `json:"status,omitempty" validate:"omitempty,oneof=new qualifying qualified lost archived"`

	AssignedAgentID   OptionalUUID `json:"assignedAgentId,omitzero"`
	AssignedAgentName *string      `json:"assignedAgentName,omitempty"`
}

// AddInteractionRequest appends to a lead's interaction log.
type AddInteractionRequest struct {
	Type            domain.InteractionType `json:"type" validate:"required,oneof=call email whatsapp meeting sms note"`
	Direction       domain.Direction       `json:"direction" validate:"required,oneof=inbound outbound"`
	Summary         string                 `json:"summary" validate:"required,min=1,max=500"`
	Notes           *string                `json:"notes,omitempty"`
	DurationMinutes *int                   `json:"durationMinutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
}

// MarkLostRequest closes a lead with a reason.
type MarkLostRequest struct {
	Reason string  `json:"reason" validate:"required,min=2,max=300"`
	Notes  *string `json:"notes,omitempty"`
}

// BulkAssignRequest assigns a set of leads to one agent.
type BulkAssignRequest struct {
	IDs               []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
	AssignedAgentID   *uuid.UUID  `json:"assignedAgentId"`
	AssignedAgentName *string     `json:"assignedAgentName,omitempty"`
}

// BulkStatusRequest applies one status transition to a set of leads.
type BulkStatusRequest struct {
	IDs    []uuid.UUID   `json:"ids" validate:"required,min=1,dive,required"`
	Status domain.Status `json:"status" validate:"required,oneof=new qualifying qualified lost archived"`
}

// BulkFailure reports one lead that a bulk operation could not update.
type BulkFailure struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BulkResult reports how a bulk operation went, per id.
type BulkResult struct {
	Updated int           `json:"updated"`
	Failed  []BulkFailure `json:"failed,omitempty"`
}

// ListLeadsRequest carries list filters, bound from query parameters.
type ListLeadsRequest struct {
	Status    *domain.Status   `form:"status"`
	Priority  *domain.Priority `form:"priority"`
	Intent    *domain.Intent   `form:"intent"`
	Source    *domain.Source   `form:"source"`
	Assignee  string           `form:"assigneeId"`
	Search    string           `form:"search"`
	Page      int              `form:"page"`
	PageSize  int              `form:"pageSize"`
	SortBy    string           `form:"sortBy"`
	SortOrder string           `form:"sortOrder"`
}

// LeadListResponse is a paginated page of leads.
type LeadListResponse struct {
	Items      []domain.Lead `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// StatsResponse is the aggregate view over the lead collection.
type StatsResponse struct {
	Total                int            `json:"total"`
	ByStatus             map[string]int `json:"byStatus"`
	ByPriority           map[string]int `json:"byPriority"`
	ByIntent             map[string]int `json:"byIntent"`
	BySource             map[string]int `json:"bySource"`
	AverageScore         float64        `json:"averageScore"`
	SLACompliancePct     float64        `json:"slaCompliancePct"`
	ConversionRatePct    float64        `json:"conversionRatePct"`
	AvgHoursToConversion float64        `json:"avgHoursToConversion"`
}

// UpdateSettingsRequest tunes SLA targets, scoring weights, and retention.
type UpdateSettingsRequest struct {
	SLAFirstContactHours  *int `json:"slaFirstContactHours,omitempty" validate:"omitempty,gte=1,lte=720"`
	SLAQualificationHours *int `json:"slaQualificationHours,omitempty" validate:"omitempty,gte=1,lte=720"`
	SLAConversionHours    *int `json:"slaConversionHours,omitempty" validate:"omitempty,gte=1,lte=720"`

	WeightContactQuality  *int `json:"weightContactQuality,omitempty" validate:"omitempty,gte=0,lte=100"`
	WeightIntentClarity   *int `json:"weightIntentClarity,omitempty" validate:"omitempty,gte=0,lte=100"`
	WeightBudgetRealism   *int `json:"weightBudgetRealism,omitempty" validate:"omitempty,gte=0,lte=100"`
	WeightTimelineUrgency *int `json:"weightTimelineUrgency,omitempty" validate:"omitempty,gte=0,lte=100"`
	WeightSourceQuality   *int `json:"weightSourceQuality,omitempty" validate:"omitempty,gte=0,lte=100"`

	AutoArchiveDays *int `json:"autoArchiveDays,omitempty" validate:"omitempty,gte=1,lte=3650"`
}
