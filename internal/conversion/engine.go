package conversion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/service"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Actor identifies who triggered the conversion.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// LeadService is the slice of the lead lifecycle the engine needs.
type LeadService interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	RecordRouting(ctx context.Context, id uuid.UUID, routed domain.RoutedTo, summary string, actor service.Actor) (domain.Lead, error)
}

// Engine turns a qualified lead into downstream records. The contact is
// mandatory; the intent-specific entity is best effort and its failure is
// reported as a warning rather than aborting the conversion.
type Engine struct {
	leads     LeadService
	directory Directory
	log       *logger.Logger
	now       func() time.Time
}

func NewEngine(leads LeadService, directory Directory, log *logger.Logger) *Engine {
	return &Engine{
		leads:     leads,
		directory: directory,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the time source for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Result is what a completed conversion produced.
type Result struct {
	Lead       domain.Lead      `json:"lead"`
	RoutedTo   domain.RoutedTo  `json:"routedTo"`
	Duplicates []DuplicateMatch `json:"duplicates,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Preview describes what Convert would do, without writing anything.
type Preview struct {
	Lead        domain.Lead      `json:"lead"`
	CanConvert  bool             `json:"canConvert"`
	Blockers    []string         `json:"blockers,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	WillCreate  []string         `json:"willCreate"`
	Duplicates  []DuplicateMatch `json:"duplicates,omitempty"`
	ContactType string           `json:"contactType"`
}

// Preview runs the validation and duplicate scan for a lead without
// creating anything.
func (e *Engine) Preview(ctx context.Context, leadID uuid.UUID) (Preview, error) {
	lead, err := e.leads.Get(ctx, leadID)
	if err != nil {
		return Preview{}, err
	}

	p := Preview{
		Lead:        lead,
		ContactType: contactCategory(lead.Intent),
		WillCreate:  []string{"contact"},
	}
	p.Blockers = conversionBlockers(lead)
	p.CanConvert = len(p.Blockers) == 0
	p.Warnings = dataQualityWarnings(lead)

	switch lead.Intent {
	case domain.IntentBuying:
		p.WillCreate = append(p.WillCreate, "buyer_requirement")
	case domain.IntentRenting:
		p.WillCreate = append(p.WillCreate, "rent_requirement")
	case domain.IntentSelling:
		p.WillCreate = append(p.WillCreate, "for_sale_listing")
	case domain.IntentLeasingOut:
		p.WillCreate = append(p.WillCreate, "for_rent_listing")
	case domain.IntentInvesting:
		p.WillCreate = append(p.WillCreate, "investor_profile", "buyer_requirement")
	}

	contacts, err := e.directory.ListContacts(ctx)
	if err != nil {
		if e.log != nil {
			e.log.StoreError("list_contacts", err)
		}
	} else {
		p.Duplicates = findDuplicates(lead, contacts)
	}

	return p, nil
}

// Convert validates the lead, creates the contact and the intent-specific
// entity, and writes the routing record back onto the lead.
func (e *Engine) Convert(ctx context.Context, leadID uuid.UUID, actor Actor) (Result, error) {
	lead, err := e.leads.Get(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	if blockers := conversionBlockers(lead); len(blockers) > 0 {
		fields := make([]apperr.FieldError, 0, len(blockers))
		for _, b := range blockers {
			fields = append(fields, apperr.FieldError{Field: "lead", Message: b})
		}
		return Result{}, apperr.ValidationFields("lead cannot be converted", fields)
	}

	warnings := dataQualityWarnings(lead)
	var duplicates []DuplicateMatch
	contacts, err := e.directory.ListContacts(ctx)
	if err != nil {
		warnings = append(warnings, "duplicate check skipped: contact registry unavailable")
		if e.log != nil {
			e.log.StoreError("list_contacts", err)
		}
	} else {
		duplicates = findDuplicates(lead, contacts)
		for _, d := range duplicates {
			warnings = append(warnings, fmt.Sprintf("possible duplicate of contact %s (%s match, %s confidence)", d.Contact.Name, d.MatchedOn, d.Confidence))
		}
	}

	now := e.now().UTC()
	leadRef := lead.ID
	contact := Contact{
		ID:           uuid.New(),
		WorkspaceID:  lead.WorkspaceID,
		Name:         lead.Name,
		Phone:        lead.Phone,
		AltPhone:     lead.AltPhone,
		Email:        lead.Email,
		Category:     contactCategory(lead.Intent),
		Notes:        contactNote(lead),
		SourceLead:   &leadRef,
		SourceIntent: string(lead.Intent),
		LeadScore:    lead.Score,
		ConvertedAt:  now,
		CreatedAt:    now,
	}
	if err := e.directory.CreateContact(ctx, contact); err != nil {
		return Result{}, apperr.Internal("failed to create contact: " + err.Error())
	}

	routed := domain.RoutedTo{ContactID: contact.ID}
	warnings = append(warnings, e.createIntentEntity(ctx, lead, contact.ID, &routed, now)...)

	summary := conversionSummary(lead, routed, warnings)
	updated, err := e.leads.RecordRouting(ctx, lead.ID, routed, summary, service.Actor{ID: actor.ID, Name: actor.Name})
	if err != nil {
		return Result{}, err
	}
	if updated.RoutedTo != nil {
		routed = *updated.RoutedTo
	}

	return Result{
		Lead:       updated,
		RoutedTo:   routed,
		Duplicates: duplicates,
		Warnings:   warnings,
	}, nil
}

// createIntentEntity creates the demand- or supply-side record matching the
// lead's intent. Failures become warnings; the conversion stands either way.
func (e *Engine) createIntentEntity(ctx context.Context, lead domain.Lead, contactID uuid.UUID, routed *domain.RoutedTo, now time.Time) []string {
	var warnings []string
	leadRef := lead.ID

	switch lead.Intent {
	case domain.IntentBuying:
		req := BuyerRequirement{
			ID:             uuid.New(),
			ContactID:      contactID,
			BudgetMin:      lead.Details.BudgetMin,
			BudgetMax:      lead.Details.BudgetMax,
			PreferredAreas: lead.Details.PreferredAreas,
			PropertyType:   lead.Details.PropertyType,
			Bedrooms:       lead.Details.Bedrooms,
			Urgency:        urgencyFromTimeline(lead.Timeline),
			Notes:          lead.Details.Notes,
			SourceLead:     &leadRef,
			CreatedAt:      now,
		}
		if err := e.directory.CreateBuyerRequirement(ctx, req); err != nil {
			warnings = append(warnings, "buyer requirement not created: "+err.Error())
		} else {
			routed.BuyerRequirementID = &req.ID
		}

	case domain.IntentRenting:
		req := RentRequirement{
			ID:             uuid.New(),
			ContactID:      contactID,
			MonthlyBudget:  lead.Details.MonthlyBudget,
			PreferredAreas: lead.Details.PreferredAreas,
			PropertyType:   lead.Details.PropertyType,
			Bedrooms:       lead.Details.Bedrooms,
			Urgency:        urgencyFromTimeline(lead.Timeline),
			Notes:          lead.Details.Notes,
			SourceLead:     &leadRef,
			CreatedAt:      now,
		}
		if err := e.directory.CreateRentRequirement(ctx, req); err != nil {
			warnings = append(warnings, "rent requirement not created: "+err.Error())
		} else {
			routed.RentRequirementID = &req.ID
		}

	case domain.IntentSelling:
		listing := PropertyListing{
			ID:            uuid.New(),
			OwnerID:       contactID,
			Kind:          ListingForSale,
			Address:       lead.Details.PropertyAddress,
			PropertyType:  lead.Details.PropertyType,
			Bedrooms:      lead.Details.Bedrooms,
			ExpectedPrice: lead.Details.ExpectedPrice,
			Notes:         lead.Details.Notes,
			SourceLead:    &leadRef,
			CreatedAt:     now,
		}
		if err := e.directory.CreateListing(ctx, listing); err != nil {
			warnings = append(warnings, "sale listing not created: "+err.Error())
		} else {
			routed.PropertyID = &listing.ID
		}

	case domain.IntentLeasingOut:
		listing := PropertyListing{
			ID:           uuid.New(),
			OwnerID:      contactID,
			Kind:         ListingForRent,
			Address:      lead.Details.PropertyAddress,
			PropertyType: lead.Details.PropertyType,
			Bedrooms:     lead.Details.Bedrooms,
			ExpectedRent: lead.Details.ExpectedRent,
			Notes:        lead.Details.Notes,
			SourceLead:   &leadRef,
			CreatedAt:    now,
		}
		if err := e.directory.CreateListing(ctx, listing); err != nil {
			warnings = append(warnings, "rental listing not created: "+err.Error())
		} else {
			routed.PropertyID = &listing.ID
		}

	case domain.IntentInvesting:
		profile := InvestorProfile{
			ID:            uuid.New(),
			ContactID:     contactID,
			Budget:        lead.Details.InvestmentBudget,
			RiskTolerance: lead.Details.RiskTolerance,
			SourceLead:    &leadRef,
			CreatedAt:     now,
		}
		if err := e.directory.CreateInvestorProfile(ctx, profile); err != nil {
			warnings = append(warnings, "investor profile not created: "+err.Error())
		} else {
			routed.InvestorID = &profile.ID
		}

		// An investor also gets a purchase search; the floor is half the
		// stated capital so smaller opportunities still surface. Investors
		// buy cash and move fast, so the search is biased accordingly.
		req := BuyerRequirement{
			ID:             uuid.New(),
			ContactID:      contactID,
			PreferredAreas: lead.Details.PreferredAreas,
			PropertyType:   lead.Details.PropertyType,
			Urgency:        UrgencyHigh,
			Financing:      FinancingCash,
			Notes:          lead.Details.Notes,
			SourceLead:     &leadRef,
			CreatedAt:      now,
		}
		if lead.Details.InvestmentBudget != nil {
			budget := *lead.Details.InvestmentBudget
			half := budget / 2
			req.BudgetMin = &half
			req.BudgetMax = &budget
		}
		if err := e.directory.CreateBuyerRequirement(ctx, req); err != nil {
			warnings = append(warnings, "buyer requirement not created: "+err.Error())
		} else {
			routed.BuyerRequirementID = &req.ID
		}

	default:
		warnings = append(warnings, "intent is unknown; only a contact was created")
	}

	return warnings
}

func conversionBlockers(lead domain.Lead) []string {
	var blockers []string
	if lead.Status != domain.StatusQualified {
		blockers = append(blockers, fmt.Sprintf("lead is %s; only qualified leads can be converted", lead.Status))
	}
	if lead.RoutedTo != nil {
		blockers = append(blockers, "lead has already been converted")
	}
	if lead.Phone == "" {
		blockers = append(blockers, "lead has no phone number")
	}
	return blockers
}

// dataQualityWarnings flags gaps worth fixing after conversion. None of them
// block; the operator sees the list alongside the result.
func dataQualityWarnings(lead domain.Lead) []string {
	var warnings []string
	if !lead.PhoneVerified {
		warnings = append(warnings, "phone number has not been verified")
	}
	if lead.Email == nil || *lead.Email == "" {
		warnings = append(warnings, "lead has no email address")
	}
	if lead.Score < 40 {
		warnings = append(warnings, fmt.Sprintf("qualification score is %d, below the medium-priority threshold", lead.Score))
	}
	if missing := missingIntentDetail(lead); missing != "" {
		warnings = append(warnings, missing)
	}
	return warnings
}

// missingIntentDetail names the one detail field the lead's intent needs for
// a useful downstream record, when it is absent.
func missingIntentDetail(lead domain.Lead) string {
	d := lead.Details
	switch lead.Intent {
	case domain.IntentBuying:
		if d.BudgetMin == nil && d.BudgetMax == nil {
			return "buying lead has no budget range"
		}
	case domain.IntentRenting:
		if d.MonthlyBudget == nil {
			return "renting lead has no monthly budget"
		}
	case domain.IntentSelling:
		if d.ExpectedPrice == nil {
			return "selling lead has no expected price"
		}
	case domain.IntentLeasingOut:
		if d.ExpectedRent == nil {
			return "leasing lead has no expected rent"
		}
	case domain.IntentInvesting:
		if d.InvestmentBudget == nil {
			return "investing lead has no investment budget"
		}
	}
	return ""
}

func urgencyFromTimeline(t domain.Timeline) Urgency {
	switch t {
	case domain.TimelineImmediate, domain.TimelineWithin1Month:
		return UrgencyHigh
	case domain.TimelineWithin3Months:
		return UrgencyMedium
	}
	return UrgencyLow
}

// contactNote composes the qualification summary carried onto the contact.
// Anything the lead wrote on arrival lives in Details.Notes and rides along.
func contactNote(lead domain.Lead) *string {
	note := fmt.Sprintf("Converted from %s lead: score %d, %s priority, timeline %s.",
		lead.Intent, lead.Score, lead.Priority, lead.Timeline)
	if lead.Details.Notes != nil && strings.TrimSpace(*lead.Details.Notes) != "" {
		note += "\n" + *lead.Details.Notes
	}
	return &note
}

func contactCategory(intent domain.Intent) string {
	switch intent {
	case domain.IntentBuying:
		return "buyer"
	case domain.IntentRenting:
		return "tenant"
	case domain.IntentSelling:
		return "seller"
	case domain.IntentLeasingOut:
		return "landlord"
	case domain.IntentInvesting:
		return "investor"
	}
	return "contact"
}

func conversionSummary(lead domain.Lead, routed domain.RoutedTo, warnings []string) string {
	summary := fmt.Sprintf("Converted to %s contact", contactCategory(lead.Intent))
	switch {
	case routed.BuyerRequirementID != nil && routed.InvestorID != nil:
		summary += " with investor profile and buyer requirement"
	case routed.BuyerRequirementID != nil:
		summary += " with buyer requirement"
	case routed.RentRequirementID != nil:
		summary += " with rent requirement"
	case routed.PropertyID != nil && lead.Intent == domain.IntentSelling:
		summary += " with sale listing"
	case routed.PropertyID != nil:
		summary += " with rental listing"
	}
	if len(warnings) > 0 {
		summary += fmt.Sprintf(" (%d warning(s))", len(warnings))
	}
	return summary
}
