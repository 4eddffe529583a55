package service

import (
	"context"

	"agency_portal_backend/internal/leads/transport"
	"agency_portal_backend/internal/store"
)

// GetSettings returns the effective settings: stored values where present,
// configured defaults otherwise.
func (s *Service) GetSettings(ctx context.Context) (store.Settings, error) {
	stored, err := s.store.LoadSettings(ctx)
	if err != nil {
		return store.Settings{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	return s.defaultSettings(), nil
}

// UpdateSettings merges the patch over the effective settings and persists
// the result. Changed weights and targets take effect on the next mutation
// or automation cycle; already-stored scores are not rewritten here.
func (s *Service) UpdateSettings(ctx context.Context, req transport.UpdateSettingsRequest) (store.Settings, error) {
	current, err := s.GetSettings(ctx)
	if err != nil {
		return store.Settings{}, err
	}

	if req.SLAFirstContactHours != nil {
		current.SLAFirstContactHours = *req.SLAFirstContactHours
	}
	if req.SLAQualificationHours != nil {
		current.SLAQualificationHours = *req.SLAQualificationHours
	}
	if req.SLAConversionHours != nil {
		current.SLAConversionHours = *req.SLAConversionHours
	}
	if req.WeightContactQuality != nil {
		current.WeightContactQuality = *req.WeightContactQuality
	}
	if req.WeightIntentClarity != nil {
		current.WeightIntentClarity = *req.WeightIntentClarity
	}
	if req.WeightBudgetRealism != nil {
		current.WeightBudgetRealism = *req.WeightBudgetRealism
	}
	if req.WeightTimelineUrgency != nil {
		current.WeightTimelineUrgency = *req.WeightTimelineUrgency
	}
	if req.WeightSourceQuality != nil {
		current.WeightSourceQuality = *req.WeightSourceQuality
	}
	if req.AutoArchiveDays != nil {
		current.AutoArchiveDays = *req.AutoArchiveDays
	}

	if err := s.store.SaveSettings(ctx, current); err != nil {
		return store.Settings{}, err
	}
	return current, nil
}

func (s *Service) defaultSettings() store.Settings {
	return store.Settings{
		SLAFirstContactHours:  s.defaults.Targets.FirstContactHours,
		SLAQualificationHours: s.defaults.Targets.QualificationHours,
		SLAConversionHours:    s.defaults.Targets.ConversionHours,
		WeightContactQuality:  s.defaults.Weights.ContactQuality,
		WeightIntentClarity:   s.defaults.Weights.IntentClarity,
		WeightBudgetRealism:   s.defaults.Weights.BudgetRealism,
		WeightTimelineUrgency: s.defaults.Weights.TimelineUrgency,
		WeightSourceQuality:   s.defaults.Weights.SourceQuality,
		AutoArchiveDays:       s.defaults.AutoArchiveDays,
	}
}
