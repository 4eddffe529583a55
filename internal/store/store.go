// Package store persists the lead collection and its companion records.
//
// The layout is deliberately simple: the whole lead collection is one
// serialized array under a fixed key, workspace settings under a second key,
// and scheduler state under a third. Every mutation is a read-modify-write of
// the entire collection, which serializes correctly for the single logical
// writer this service assumes. The per-lead Version field is the hook for
// moving to optimistic per-record updates if a second writer ever appears.
package store

import (
	"context"
	"time"

	"agency_portal_backend/internal/leads/domain"
)

// Settings are the operator-tunable knobs persisted alongside the leads.
type Settings struct {
	SLAFirstContactHours  int `json:"slaFirstContactHours"`
	SLAQualificationHours int `json:"slaQualificationHours"`
	SLAConversionHours    int `json:"slaConversionHours"`

	WeightContactQuality  int `json:"weightContactQuality"`
	WeightIntentClarity   int `json:"weightIntentClarity"`
	WeightBudgetRealism   int `json:"weightBudgetRealism"`
	WeightTimelineUrgency int `json:"weightTimelineUrgency"`
	WeightSourceQuality   int `json:"weightSourceQuality"`

	AutoArchiveDays int `json:"autoArchiveDays"`
}

// SchedulerState is what the automation loop persists across ticks,
// used only for observability.
type SchedulerState struct {
	LastRun            *time.Time `json:"lastRun,omitempty"`
	TotalTasksExecuted int        `json:"totalTasksExecuted"`
}

// LeadStore is the persistence boundary for the lead subsystem.
// It holds no business rules.
type LeadStore interface {
	// LoadAll returns the full lead collection. An empty store yields an
	// empty slice, not an error.
	LoadAll(ctx context.Context) ([]domain.Lead, error)
	// ReplaceAll atomically swaps the full lead collection.
	ReplaceAll(ctx context.Context, leads []domain.Lead) error

	// LoadSettings returns the persisted settings, or nil when none were
	// ever saved (callers fall back to configuration defaults).
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error

	LoadSchedulerState(ctx context.Context) (*SchedulerState, error)
	SaveSchedulerState(ctx context.Context, state SchedulerState) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}
