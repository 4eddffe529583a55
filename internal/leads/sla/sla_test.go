package sla

import (
	"testing"
	"time"

	"agency_portal_backend/internal/leads/domain"
)

var base = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func leadCreatedAt(created time.Time) domain.Lead {
	return domain.Lead{
		Status: domain.StatusNew,
		SLA:    domain.SLARecord{CreatedAt: created, Compliant: true},
	}
}

func TestEvaluateFreshLeadIsCompliant(t *testing.T) {
	lead := leadCreatedAt(base)

	compliant, overdue := Evaluate(lead, base.Add(90*time.Minute), DefaultTargets())
	if !compliant {
		t.Fatal("expected lead inside the 2h window to be compliant")
	}
	if overdue != 0 {
		t.Fatalf("expected 0 overdue hours, got %d", overdue)
	}
}

func TestEvaluateFirstContactOverdue(t *testing.T) {
	lead := leadCreatedAt(base)

	compliant, overdue := Evaluate(lead, base.Add(3*time.Hour), DefaultTargets())
	if compliant {
		t.Fatal("expected breach at 3h with a 2h first-contact target")
	}
	if overdue != 1 {
		t.Fatalf("expected 1 hour overdue, got %d", overdue)
	}
}

func TestEvaluateSubHourExcessBreaches(t *testing.T) {
	lead := leadCreatedAt(base)

	// 2h30m against a 2h target: already a breach, but not yet a whole
	// hour over.
	compliant, overdue := Evaluate(lead, base.Add(150*time.Minute), DefaultTargets())
	if compliant {
		t.Fatal("expected breach 30 minutes past the first-contact target")
	}
	if overdue != 0 {
		t.Fatalf("expected 0 whole hours overdue, got %d", overdue)
	}

	// At exactly the target the lead is still compliant.
	compliant, _ = Evaluate(lead, base.Add(2*time.Hour), DefaultTargets())
	if !compliant {
		t.Fatal("expected compliance at exactly the target")
	}
}

func TestEvaluateReportsWorstMilestone(t *testing.T) {
	lead := leadCreatedAt(base)

	// 30h in: first contact 28h over, qualification 6h over.
	compliant, overdue := Evaluate(lead, base.Add(30*time.Hour), DefaultTargets())
	if compliant {
		t.Fatal("expected breach")
	}
	if overdue != 28 {
		t.Fatalf("expected the worst overdue (28h), got %d", overdue)
	}
}

func TestEvaluateReachedMilestonesNotPenalized(t *testing.T) {
	lead := leadCreatedAt(base)
	// First contact happened late, at 5h. It still must not count against
	// the lead afterwards.
	contact := base.Add(5 * time.Hour)
	lead.SLA.FirstContactAt = &contact

	compliant, overdue := Evaluate(lead, base.Add(6*time.Hour), DefaultTargets())
	if !compliant {
		t.Fatal("expected compliance once first contact was made and other targets are not due")
	}
	if overdue != 0 {
		t.Fatalf("expected 0 overdue hours, got %d", overdue)
	}
}

func TestEvaluateAllMilestonesReached(t *testing.T) {
	lead := leadCreatedAt(base)
	contact := base.Add(1 * time.Hour)
	qualified := base.Add(20 * time.Hour)
	converted := base.Add(40 * time.Hour)
	lead.SLA.FirstContactAt = &contact
	lead.SLA.QualifiedAt = &qualified
	lead.SLA.ConvertedAt = &converted

	compliant, overdue := Evaluate(lead, base.Add(400*time.Hour), DefaultTargets())
	if !compliant || overdue != 0 {
		t.Fatalf("fully milestoned lead must stay compliant forever, got compliant=%v overdue=%d", compliant, overdue)
	}
}

func TestEvaluateOverdueGrowsMonotonically(t *testing.T) {
	lead := leadCreatedAt(base)

	last := 0
	for h := 1; h <= 72; h++ {
		_, overdue := Evaluate(lead, base.Add(time.Duration(h)*time.Hour), DefaultTargets())
		if overdue < last {
			t.Fatalf("overdue shrank from %d to %d at hour %d", last, overdue, h)
		}
		last = overdue
	}
}

func TestEvaluateClockBeforeCreation(t *testing.T) {
	lead := leadCreatedAt(base)

	compliant, overdue := Evaluate(lead, base.Add(-1*time.Hour), DefaultTargets())
	if !compliant || overdue != 0 {
		t.Fatalf("a clock before creation must not breach, got compliant=%v overdue=%d", compliant, overdue)
	}
}

func TestApplyPreservesTimestamps(t *testing.T) {
	lead := leadCreatedAt(base)
	contact := base.Add(1 * time.Hour)
	lead.SLA.FirstContactAt = &contact

	record := Apply(lead, base.Add(30*time.Hour), DefaultTargets())
	if record.FirstContactAt == nil || !record.FirstContactAt.Equal(contact) {
		t.Fatal("Apply must not touch milestone timestamps")
	}
	if record.CreatedAt != base {
		t.Fatal("Apply must not touch createdAt")
	}
	if record.Compliant {
		t.Fatal("expected breach at 30h with qualification unreached")
	}
}
