package service

import (
	"context"
	"math"

	"agency_portal_backend/internal/leads/domain"
	"agency_portal_backend/internal/leads/transport"
)

// Stats aggregates the whole collection into the dashboard view: counts per
// dimension, average score, SLA compliance, and conversion figures.
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	leads, err := s.store.LoadAll(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	resp := transport.StatsResponse{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
		ByIntent:   map[string]int{},
		BySource:   map[string]int{},
	}
	resp.Total = len(leads)
	if resp.Total == 0 {
		return resp, nil
	}

	var scoreSum int
	var compliant, converted, closed int
	var conversionHoursSum float64

	for _, lead := range leads {
		resp.ByStatus[string(lead.Status)]++
		resp.ByPriority[string(lead.Priority)]++
		resp.ByIntent[string(lead.Intent)]++
		resp.BySource[string(lead.Source)]++
		scoreSum += lead.Score
		if lead.SLA.Compliant {
			compliant++
		}
		switch lead.Status {
		case domain.StatusConverted:
			converted++
			closed++
			if lead.SLA.ConvertedAt != nil {
				conversionHoursSum += lead.SLA.ConvertedAt.Sub(lead.SLA.CreatedAt).Hours()
			}
		case domain.StatusLost:
			closed++
		case domain.StatusArchived:
			closed++
			if lead.RoutedTo != nil {
				converted++
				conversionHoursSum += lead.RoutedTo.ConvertedAt.Sub(lead.SLA.CreatedAt).Hours()
			}
		}
	}

	resp.AverageScore = round1(float64(scoreSum) / float64(resp.Total))
	resp.SLACompliancePct = round1(float64(compliant) / float64(resp.Total) * 100)
	if closed > 0 {
		resp.ConversionRatePct = round1(float64(converted) / float64(closed) * 100)
	}
	if converted > 0 {
		resp.AvgHoursToConversion = round1(conversionHoursSum / float64(converted))
	}
	return resp, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
