package automation

import (
	"context"
	"fmt"
	"time"

	"agency_portal_backend/internal/leads/transport"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Frequency is how often a scheduled report recurs.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// ValidFrequency reports whether f is an accepted recurrence.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// ReportDefinition is a recurring report an operator scheduled.
type ReportDefinition struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Frequency Frequency  `json:"frequency"`
	NextRun   time.Time  `json:"nextRun"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ReportResult is one executed snapshot of a scheduled report.
type ReportResult struct {
	ID          uuid.UUID               `json:"id"`
	ReportID    uuid.UUID               `json:"reportId"`
	Name        string                  `json:"name"`
	GeneratedAt time.Time               `json:"generatedAt"`
	Stats       transport.StatsResponse `json:"stats"`
}

// ReportStore persists the scheduled definitions and their results.
type ReportStore interface {
	ListReports(ctx context.Context) ([]ReportDefinition, error)
	SaveReports(ctx context.Context, reports []ReportDefinition) error
	AppendResult(ctx context.Context, result ReportResult) error
}

// StatsProvider supplies the aggregate snapshot a report captures.
type StatsProvider interface {
	Stats(ctx context.Context) (transport.StatsResponse, error)
}

// ReportEngine executes due scheduled reports and advances their next-run
// timestamps.
type ReportEngine struct {
	reports ReportStore
	stats   StatsProvider
	log     *logger.Logger
}

func NewReportEngine(reports ReportStore, stats StatsProvider, log *logger.Logger) *ReportEngine {
	return &ReportEngine{reports: reports, stats: stats, log: log}
}

// List returns every scheduled definition.
func (e *ReportEngine) List(ctx context.Context) ([]ReportDefinition, error) {
	return e.reports.ListReports(ctx)
}

// Schedule adds a new recurring report, first due at nextRun.
func (e *ReportEngine) Schedule(ctx context.Context, name string, freq Frequency, nextRun time.Time) (ReportDefinition, error) {
	if !ValidFrequency(freq) {
		return ReportDefinition{}, fmt.Errorf("invalid frequency %q", freq)
	}

	def := ReportDefinition{
		ID:        uuid.New(),
		Name:      name,
		Frequency: freq,
		NextRun:   nextRun.UTC(),
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}

	reports, err := e.reports.ListReports(ctx)
	if err != nil {
		return ReportDefinition{}, err
	}
	if err := e.reports.SaveReports(ctx, append(reports, def)); err != nil {
		return ReportDefinition{}, err
	}
	return def, nil
}

// RunDue executes every enabled report whose nextRun is not in the future,
// then advances nextRun past now. Returns how many reports were executed.
func (e *ReportEngine) RunDue(ctx context.Context, now time.Time) (int, error) {
	reports, err := e.reports.ListReports(ctx)
	if err != nil {
		return 0, err
	}

	executed := 0
	changed := false
	for i := range reports {
		def := &reports[i]
		if !def.Enabled || def.NextRun.After(now) {
			continue
		}

		stats, err := e.stats.Stats(ctx)
		if err != nil {
			if e.log != nil {
				e.log.SchedulerPassError("reports", fmt.Errorf("report %s: %w", def.Name, err))
			}
			continue
		}

		result := ReportResult{
			ID:          uuid.New(),
			ReportID:    def.ID,
			Name:        def.Name,
			GeneratedAt: now.UTC(),
			Stats:       stats,
		}
		if err := e.reports.AppendResult(ctx, result); err != nil {
			if e.log != nil {
				e.log.SchedulerPassError("reports", fmt.Errorf("report %s: %w", def.Name, err))
			}
			continue
		}

		ran := now.UTC()
		def.LastRun = &ran
		def.NextRun = NextRun(def.Frequency, def.NextRun, now)
		executed++
		changed = true
	}

	if changed {
		if err := e.reports.SaveReports(ctx, reports); err != nil {
			return executed, err
		}
	}
	return executed, nil
}

// NextRun steps from the scheduled time by the recurrence until the result
// lies strictly after now, so a report that missed several windows runs once
// and resumes its cadence instead of firing repeatedly to catch up.
func NextRun(freq Frequency, from, now time.Time) time.Time {
	next := from
	for !next.After(now) {
		switch freq {
		case FrequencyDaily:
			next = next.AddDate(0, 0, 1)
		case FrequencyWeekly:
			next = next.AddDate(0, 0, 7)
		case FrequencyMonthly:
			next = next.AddDate(0, 1, 0)
		case FrequencyQuarterly:
			next = next.AddDate(0, 3, 0)
		default:
			return next.AddDate(0, 0, 1)
		}
	}
	return next
}

// runReportPass is the scheduler's third pass.
func (s *Scheduler) runReportPass(ctx context.Context) (int, error) {
	if s.reports == nil {
		return 0, nil
	}
	return s.reports.RunDue(ctx, s.clock.Now().UTC())
}
