// Package scoring computes the qualification score for a lead.
//
// Score is a pure function of the lead's attributes: the same input always
// produces the same breakdown, so it can be re-run on every mutation without
// drift. Each of the five factors is capped at its configured weight and the
// total at the sum of the weights (100 with defaults).
package scoring

import (
	"math"

	"agency_portal_backend/internal/leads/domain"
)

// scoreVersion tracks the scoring model for debugging and analysis.
// Bump this when changing scoring logic significantly.
const scoreVersion = "2026-v1"

// Weights caps each factor's contribution. The defaults total 100.
type Weights struct {
	ContactQuality  int
	IntentClarity   int
	BudgetRealism   int
	TimelineUrgency int
	SourceQuality   int
}

// DefaultWeights returns the standard 20-per-factor weighting.
func DefaultWeights() Weights {
	return Weights{
		ContactQuality:  20,
		IntentClarity:   20,
		BudgetRealism:   20,
		TimelineUrgency: 20,
		SourceQuality:   20,
	}
}

// Total returns the maximum achievable score under these weights.
func (w Weights) Total() int {
	return w.ContactQuality + w.IntentClarity + w.BudgetRealism + w.TimelineUrgency + w.SourceQuality
}

// Priority thresholds on the total score.
const (
	highThreshold   = 70
	mediumThreshold = 40
)

// Result is the score breakdown plus the derived priority tier.
type Result struct {
	Breakdown domain.ScoreBreakdown
	Total     int
	Priority  domain.Priority
	Version   string
}

// intentClarityTable maps intent to its share of the factor weight.
// Buying and selling are the clearest signals; investing slightly lower.
var intentClarityTable = map[domain.Intent]float64{
	domain.IntentBuying:     1.0,
	domain.IntentSelling:    1.0,
	domain.IntentInvesting:  0.9,
	domain.IntentRenting:    0.8,
	domain.IntentLeasingOut: 0.8,
	domain.IntentUnknown:    0,
}

// timelineUrgencyTable is strictly decreasing from immediate to long_term.
var timelineUrgencyTable = map[domain.Timeline]float64{
	domain.TimelineImmediate:     1.0,
	domain.TimelineWithin1Month:  0.8,
	domain.TimelineWithin3Months: 0.6,
	domain.TimelineWithin6Months: 0.4,
	domain.TimelineLongTerm:      0.2,
	domain.TimelineUnknown:       0,
}

// sourceQualityTable reflects observed conversion rates per channel:
// referrals and walk-ins close best, cold outreach worst.
var sourceQualityTable = map[domain.Source]float64{
	domain.SourceReferral:      1.0,
	domain.SourceWalkIn:        1.0,
	domain.SourceWebsite:       0.7,
	domain.SourcePortal:        0.7,
	domain.SourceWhatsApp:      0.6,
	domain.SourcePhoneCall:     0.6,
	domain.SourceEvent:         0.6,
	domain.SourceSocialMedia:   0.5,
	domain.SourcePartner:       0.5,
	domain.SourceEmailCampaign: 0.4,
	domain.SourceSMSCampaign:   0.4,
	domain.SourceColdCall:      0.2,
	domain.SourceOther:         0.2,
}

// Score computes the five-factor breakdown for the given lead attributes.
func Score(lead domain.Lead, weights Weights) Result {
	breakdown := domain.ScoreBreakdown{
		ContactQuality:  scoreContactQuality(lead, weights.ContactQuality),
		IntentClarity:   scaled(intentClarityTable[lead.Intent], weights.IntentClarity),
		BudgetRealism:   scoreBudgetRealism(lead, weights.BudgetRealism),
		TimelineUrgency: scaled(timelineUrgencyTable[lead.Timeline], weights.TimelineUrgency),
		SourceQuality:   scaled(sourceQualityTable[lead.Source], weights.SourceQuality),
	}

	total := breakdown.ContactQuality + breakdown.IntentClarity + breakdown.BudgetRealism +
		breakdown.TimelineUrgency + breakdown.SourceQuality

	return Result{
		Breakdown: breakdown,
		Total:     total,
		Priority:  PriorityFor(total),
		Version:   scoreVersion,
	}
}

// PriorityFor derives the tier from a total score.
func PriorityFor(total int) domain.Priority {
	switch {
	case total >= highThreshold:
		return domain.PriorityHigh
	case total >= mediumThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// scoreContactQuality rewards reachable, verified contact data.
// A verified phone is the largest share; an unverified phone with an email
// on file earns partial credit; a verified email adds further credit.
// An unverified phone with no email scores zero.
func scoreContactQuality(lead domain.Lead, weight int) int {
	share := 0.0

	if lead.PhoneVerified {
		share += 0.7
	} else if lead.Email != nil && *lead.Email != "" {
		share += 0.3
	}

	if lead.EmailVerified && lead.Email != nil && *lead.Email != "" {
		share += 0.3
	}

	if share > 1.0 {
		share = 1.0
	}
	return scaled(share, weight)
}

// scoreBudgetRealism gives full credit only when the intent-appropriate
// budget or price field is populated; absent data scores zero regardless
// of intent.
func scoreBudgetRealism(lead domain.Lead, weight int) int {
	var populated bool
	switch lead.Intent {
	case domain.IntentBuying:
		populated = positive(lead.Details.BudgetMax) || positive(lead.Details.BudgetMin)
	case domain.IntentSelling:
		populated = positive(lead.Details.ExpectedPrice)
	case domain.IntentRenting:
		populated = positive(lead.Details.MonthlyBudget)
	case domain.IntentLeasingOut:
		populated = positive(lead.Details.ExpectedRent)
	case domain.IntentInvesting:
		populated = positive(lead.Details.InvestmentBudget)
	}

	if !populated {
		return 0
	}
	return weight
}

func positive(value *float64) bool {
	return value != nil && *value > 0
}

func scaled(share float64, weight int) int {
	if share <= 0 || weight <= 0 {
		return 0
	}
	if share > 1.0 {
		share = 1.0
	}
	return int(math.Round(share * float64(weight)))
}
