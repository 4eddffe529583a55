// Package sla evaluates service-level compliance for a lead.
//
// Evaluate is a pure function of the lead's milestone timestamps and the
// current time. It never mutates the timestamps; it only derives the
// compliant/overdue pair. A milestone that has already been reached is never
// penalized, even if it was reached late — compliance measures only
// not-yet-reached milestones against elapsed time.
package sla

import (
	"time"

	"agency_portal_backend/internal/leads/domain"
)

// Targets are the maximum allowed elapsed hours from lead creation
// for each lifecycle milestone.
type Targets struct {
	FirstContactHours  int
	QualificationHours int
	ConversionHours    int
}

// DefaultTargets returns the standard targets: first contact within 2 hours,
// qualification within 24, conversion within 48.
func DefaultTargets() Targets {
	return Targets{
		FirstContactHours:  2,
		QualificationHours: 24,
		ConversionHours:    48,
	}
}

// Evaluate computes the compliance pair for the lead at the given time.
// When several milestones are overdue, OverdueByHours reports the worst one,
// not the sum.
func Evaluate(lead domain.Lead, now time.Time, targets Targets) (compliant bool, overdueByHours int) {
	elapsed := now.Sub(lead.SLA.CreatedAt)
	if elapsed < 0 {
		return true, 0
	}

	compliant = true
	check := func(reachedAt *time.Time, targetHours int) {
		if reachedAt != nil {
			return
		}
		target := time.Duration(targetHours) * time.Hour
		if elapsed > target {
			compliant = false
			// Overdue is reported in whole hours; the compliance flag
			// itself flips on any excess, even sub-hour.
			if overdue := int((elapsed - target).Hours()); overdue > overdueByHours {
				overdueByHours = overdue
			}
		}
	}

	check(lead.SLA.FirstContactAt, targets.FirstContactHours)
	check(lead.SLA.QualifiedAt, targets.QualificationHours)
	check(lead.SLA.ConvertedAt, targets.ConversionHours)

	return compliant, overdueByHours
}

// Apply evaluates the lead and writes the derived pair onto a copy of its
// SLA record, which is returned. Timestamps pass through untouched.
func Apply(lead domain.Lead, now time.Time, targets Targets) domain.SLARecord {
	record := lead.SLA
	record.Compliant, record.OverdueByHours = Evaluate(lead, now, targets)
	return record
}
