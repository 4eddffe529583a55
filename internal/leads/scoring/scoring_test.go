package scoring

import (
	"testing"

	"agency_portal_backend/internal/leads/domain"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestScoreMinimalLead(t *testing.T) {
	lead := domain.Lead{
		Name:     "Walk In",
		Phone:    "+971501234567",
		Intent:   domain.IntentUnknown,
		Timeline: domain.TimelineUnknown,
		Source:   domain.SourceOther,
	}

	result := Score(lead, DefaultWeights())

	if result.Total != 4 {
		t.Fatalf("expected total 4 for a bare lead, got %d", result.Total)
	}
	if result.Priority != domain.PriorityLow {
		t.Fatalf("expected low priority, got %s", result.Priority)
	}
	if result.Breakdown.SourceQuality != 4 {
		t.Errorf("expected source factor 4 for other, got %d", result.Breakdown.SourceQuality)
	}
	if result.Breakdown.IntentClarity != 0 {
		t.Errorf("expected intent factor 0 for unknown, got %d", result.Breakdown.IntentClarity)
	}
}

func TestScoreFullyQualifiedLead(t *testing.T) {
	email := "buyer@example.com"
	lead := domain.Lead{
		Name:          "Serious Buyer",
		Phone:         "+971501234567",
		Email:         &email,
		PhoneVerified: true,
		EmailVerified: true,
		Intent:        domain.IntentBuying,
		Timeline:      domain.TimelineImmediate,
		Source:        domain.SourceReferral,
		Details: domain.Details{
			BudgetMax: floatPtr(2_500_000),
		},
	}

	result := Score(lead, DefaultWeights())

	if result.Total != 100 {
		t.Fatalf("expected perfect score 100, got %d (breakdown %+v)", result.Total, result.Breakdown)
	}
	if result.Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority, got %s", result.Priority)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	lead := domain.Lead{
		Phone:         "+971501234567",
		PhoneVerified: true,
		Intent:        domain.IntentInvesting,
		Timeline:      domain.TimelineWithin3Months,
		Source:        domain.SourceWebsite,
		Details: domain.Details{
			InvestmentBudget: floatPtr(1_000_000),
			RiskTolerance:    strPtr("medium"),
		},
	}

	first := Score(lead, DefaultWeights())
	for i := 0; i < 10; i++ {
		if got := Score(lead, DefaultWeights()); got != first {
			t.Fatalf("score changed between runs: %+v vs %+v", first, got)
		}
	}
}

func TestScoreStaysInBounds(t *testing.T) {
	intents := append(domain.ValidIntents(), domain.Intent(""))
	timelines := []domain.Timeline{
		domain.TimelineImmediate, domain.TimelineWithin1Month, domain.TimelineWithin3Months,
		domain.TimelineWithin6Months, domain.TimelineLongTerm, domain.TimelineUnknown,
	}

	for _, intent := range intents {
		for _, timeline := range timelines {
			for _, source := range domain.ValidSources() {
				lead := domain.Lead{
					Phone:         "+971501234567",
					PhoneVerified: true,
					EmailVerified: true,
					Intent:        intent,
					Timeline:      timeline,
					Source:        source,
					Details: domain.Details{
						BudgetMax:        floatPtr(1_000_000),
						ExpectedPrice:    floatPtr(1_000_000),
						MonthlyBudget:    floatPtr(10_000),
						ExpectedRent:     floatPtr(10_000),
						InvestmentBudget: floatPtr(1_000_000),
					},
				}
				result := Score(lead, DefaultWeights())
				if result.Total < 0 || result.Total > 100 {
					t.Fatalf("score out of bounds for %s/%s/%s: %d", intent, timeline, source, result.Total)
				}
			}
		}
	}
}

func TestBudgetRealismFollowsIntent(t *testing.T) {
	budget := floatPtr(3_000_000)
	cases := []struct {
		name    string
		intent  domain.Intent
		details domain.Details
		want    bool
	}{
		{"buying with max budget", domain.IntentBuying, domain.Details{BudgetMax: budget}, true},
		{"buying with min only", domain.IntentBuying, domain.Details{BudgetMin: budget}, true},
		{"buying without budget", domain.IntentBuying, domain.Details{}, false},
		{"selling with price", domain.IntentSelling, domain.Details{ExpectedPrice: budget}, true},
		{"renting with monthly", domain.IntentRenting, domain.Details{MonthlyBudget: floatPtr(8000)}, true},
		{"leasing with rent", domain.IntentLeasingOut, domain.Details{ExpectedRent: floatPtr(9000)}, true},
		{"investing with capital", domain.IntentInvesting, domain.Details{InvestmentBudget: budget}, true},
		{"unknown intent ignores budget", domain.IntentUnknown, domain.Details{BudgetMax: budget}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lead := domain.Lead{Intent: tc.intent, Details: tc.details}
			got := Score(lead, DefaultWeights()).Breakdown.BudgetRealism
			if tc.want && got == 0 {
				t.Errorf("expected budget factor > 0, got 0")
			}
			if !tc.want && got != 0 {
				t.Errorf("expected budget factor 0, got %d", got)
			}
		})
	}
}

func TestPriorityThresholds(t *testing.T) {
	cases := []struct {
		total int
		want  domain.Priority
	}{
		{0, domain.PriorityLow},
		{39, domain.PriorityLow},
		{40, domain.PriorityMedium},
		{69, domain.PriorityMedium},
		{70, domain.PriorityHigh},
		{100, domain.PriorityHigh},
	}
	for _, tc := range cases {
		if got := PriorityFor(tc.total); got != tc.want {
			t.Errorf("PriorityFor(%d) = %s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestCustomWeightsShiftTotal(t *testing.T) {
	lead := domain.Lead{
		Phone:         "+971501234567",
		PhoneVerified: true,
		Intent:        domain.IntentBuying,
		Timeline:      domain.TimelineImmediate,
		Source:        domain.SourceReferral,
		Details:       domain.Details{BudgetMax: floatPtr(1_000_000)},
	}

	heavy := Weights{ContactQuality: 60, IntentClarity: 10, BudgetRealism: 10, TimelineUrgency: 10, SourceQuality: 10}
	result := Score(lead, heavy)
	if result.Breakdown.ContactQuality != 42 {
		t.Errorf("expected contact factor 42 with weight 60 (verified phone), got %d", result.Breakdown.ContactQuality)
	}
	if result.Total > heavy.Total() {
		t.Errorf("total %d exceeds weight budget %d", result.Total, heavy.Total())
	}
}
