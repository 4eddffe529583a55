package conversion

import (
	"strings"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/platform/phone"
)

// Confidence grades a duplicate match. Matches never block conversion; they
// are surfaced so the operator can merge afterwards.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// DuplicateMatch names an existing contact that likely is the same person.
type DuplicateMatch struct {
	Contact    Contact    `json:"contact"`
	Confidence Confidence `json:"confidence"`
	MatchedOn  string     `json:"matchedOn"`
}

// findDuplicates compares the lead against the contact registry.
// Phone or email equality is a high-confidence match; overlapping name
// tokens are medium confidence.
func findDuplicates(lead domain.Lead, contacts []Contact) []DuplicateMatch {
	var matches []DuplicateMatch
	leadTokens := nameTokens(lead.Name)

	for _, contact := range contacts {
		if phone.SameNumber(lead.Phone, contact.Phone) {
			matches = append(matches, DuplicateMatch{Contact: contact, Confidence: ConfidenceHigh, MatchedOn: "phone"})
			continue
		}
		if lead.AltPhone != nil && phone.SameNumber(*lead.AltPhone, contact.Phone) {
			matches = append(matches, DuplicateMatch{Contact: contact, Confidence: ConfidenceHigh, MatchedOn: "altPhone"})
			continue
		}
		if contact.AltPhone != nil && phone.SameNumber(lead.Phone, *contact.AltPhone) {
			matches = append(matches, DuplicateMatch{Contact: contact, Confidence: ConfidenceHigh, MatchedOn: "phone"})
			continue
		}
		if lead.Email != nil && contact.Email != nil &&
			strings.EqualFold(strings.TrimSpace(*lead.Email), strings.TrimSpace(*contact.Email)) {
			matches = append(matches, DuplicateMatch{Contact: contact, Confidence: ConfidenceHigh, MatchedOn: "email"})
			continue
		}
		if nameOverlaps(leadTokens, nameTokens(contact.Name)) {
			matches = append(matches, DuplicateMatch{Contact: contact, Confidence: ConfidenceMedium, MatchedOn: "name"})
		}
	}

	return matches
}

func nameTokens(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// nameOverlaps reports whether a strict majority of the shorter name's
// tokens appear in the other name. Single-token names must match fully.
func nameOverlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}

	set := make(map[string]struct{}, len(longer))
	for _, t := range longer {
		set[t] = struct{}{}
	}
	common := 0
	for _, t := range shorter {
		if _, ok := set[t]; ok {
			common++
		}
	}

	return common >= len(shorter)/2+1
}
