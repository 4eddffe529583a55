// Package conversion routes a qualified lead into the downstream back-office
// records: a contact, plus the intent-specific requirement or listing.
package conversion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Contact is the permanent person record a converted lead becomes. It keeps
// back-references to the lead it came from so provenance survives conversion.
type Contact struct {
	ID           uuid.UUID  `json:"id"`
	WorkspaceID  uuid.UUID  `json:"workspaceId"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	AltPhone     *string    `json:"altPhone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Category     string     `json:"category"`
	Notes        *string    `json:"notes,omitempty"`
	SourceLead   *uuid.UUID `json:"sourceLeadId,omitempty"`
	SourceIntent string     `json:"sourceIntent,omitempty"`
	LeadScore    int        `json:"leadScore,omitempty"`
	ConvertedAt  time.Time  `json:"convertedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Urgency ranks how quickly a requirement should be worked.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// FinancingCash marks a requirement backed by cash rather than a mortgage.
const FinancingCash = "cash"

// BuyerRequirement is an active purchase search attached to a contact.
type BuyerRequirement struct {
	ID             uuid.UUID  `json:"id"`
	ContactID      uuid.UUID  `json:"contactId"`
	BudgetMin      *float64   `json:"budgetMin,omitempty"`
	BudgetMax      *float64   `json:"budgetMax,omitempty"`
	PreferredAreas []string   `json:"preferredAreas,omitempty"`
	PropertyType   *string    `json:"propertyType,omitempty"`
	Bedrooms       *int       `json:"bedrooms,omitempty"`
	Urgency        Urgency    `json:"urgency"`
	Financing      string     `json:"financing,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	SourceLead     *uuid.UUID `json:"sourceLeadId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// RentRequirement is an active rental search attached to a contact.
type RentRequirement struct {
	ID             uuid.UUID  `json:"id"`
	ContactID      uuid.UUID  `json:"contactId"`
	MonthlyBudget  *float64   `json:"monthlyBudget,omitempty"`
	PreferredAreas []string   `json:"preferredAreas,omitempty"`
	PropertyType   *string    `json:"propertyType,omitempty"`
	Bedrooms       *int       `json:"bedrooms,omitempty"`
	Urgency        Urgency    `json:"urgency"`
	Notes          *string    `json:"notes,omitempty"`
	SourceLead     *uuid.UUID `json:"sourceLeadId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ListingKind distinguishes a sale mandate from a rental mandate.
type ListingKind string

const (
	ListingForSale ListingKind = "for_sale"
	ListingForRent ListingKind = "for_rent"
)

// PropertyListing is a draft mandate created from an owner-side lead.
type PropertyListing struct {
	ID            uuid.UUID   `json:"id"`
	OwnerID       uuid.UUID   `json:"ownerId"`
	Kind          ListingKind `json:"kind"`
	Address       *string     `json:"address,omitempty"`
	PropertyType  *string     `json:"propertyType,omitempty"`
	Bedrooms      *int        `json:"bedrooms,omitempty"`
	ExpectedPrice *float64    `json:"expectedPrice,omitempty"`
	ExpectedRent  *float64    `json:"expectedRent,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	SourceLead    *uuid.UUID  `json:"sourceLeadId,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// InvestorProfile marks a contact as an investor with a capital range.
type InvestorProfile struct {
	ID            uuid.UUID  `json:"id"`
	ContactID     uuid.UUID  `json:"contactId"`
	Budget        *float64   `json:"budget,omitempty"`
	RiskTolerance *string    `json:"riskTolerance,omitempty"`
	SourceLead    *uuid.UUID `json:"sourceLeadId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ContactStore is the contact registry the engine writes into.
type ContactStore interface {
	ListContacts(ctx context.Context) ([]Contact, error)
	CreateContact(ctx context.Context, contact Contact) error
}

// RequirementStore holds the demand-side records.
type RequirementStore interface {
	CreateBuyerRequirement(ctx context.Context, req BuyerRequirement) error
	CreateRentRequirement(ctx context.Context, req RentRequirement) error
}

// ListingStore holds the supply-side records.
type ListingStore interface {
	CreateListing(ctx context.Context, listing PropertyListing) error
}

// InvestorStore holds investor profiles.
type InvestorStore interface {
	CreateInvestorProfile(ctx context.Context, profile InvestorProfile) error
}

// Directory bundles every downstream registry the engine routes into.
type Directory interface {
	ContactStore
	RequirementStore
	ListingStore
	InvestorStore
}
