package domain

// terminalStatuses are lead statuses where no further edits should occur.
// A lost lead may still be archived.
var terminalStatuses = map[Status]bool{
	StatusConverted: true,
	StatusLost:      true,
	StatusArchived:  true,
}

// statusRank orders the forward path of the lifecycle. Lost and archived sit
// outside the forward path and are handled separately.
var statusRank = map[Status]int{
	StatusNew:        0,
	StatusQualifying: 1,
	StatusQualified:  2,
	StatusConverted:  3,
	StatusArchived:   4,
}

// IsTerminal returns true if the status permits no further mutation.
func IsTerminal(status Status) bool {
	return terminalStatuses[status]
}

// CanTransition reports whether a lead may move from one status to another.
// The forward path is new → qualifying → qualified → converted → archived;
// any non-terminal status may divert to lost, and lost may only be archived.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}

	switch to {
	case StatusLost:
		return !IsTerminal(from)
	case StatusArchived:
		// Converted leads age out; lost leads are archived manually.
		return from == StatusConverted || from == StatusLost
	case StatusConverted:
		// Conversion is the routing engine's edge, never a plain status edit.
		return from == StatusQualified
	}

	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}

	// Forward-only, one step or several (e.g. new → qualified is allowed
	// when an operator qualifies in a single edit).
	return toRank > fromRank && to != StatusArchived
}

// ValidStatus reports whether the value is a recognized lifecycle status.
func ValidStatus(status Status) bool {
	if status == StatusLost {
		return true
	}
	_, ok := statusRank[status]
	return ok
}
