package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	reportsKey = "automation:reports"
	resultsKey = "automation:report_results"

	// Old snapshots beyond this count are dropped oldest-first.
	maxStoredResults = 100
)

// RedisReportStore keeps the report definitions and their results as two
// whole-collection JSON values, same model as the lead store.
type RedisReportStore struct {
	client *redis.Client
}

func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

func (s *RedisReportStore) ListReports(ctx context.Context) ([]ReportDefinition, error) {
	raw, err := s.client.Get(ctx, reportsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []ReportDefinition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}

	var reports []ReportDefinition
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return reports, nil
}

func (s *RedisReportStore) SaveReports(ctx context.Context, reports []ReportDefinition) error {
	if reports == nil {
		reports = []ReportDefinition{}
	}
	raw, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if err := s.client.Set(ctx, reportsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("store reports: %w", err)
	}
	return nil
}

func (s *RedisReportStore) AppendResult(ctx context.Context, result ReportResult) error {
	raw, err := s.client.Get(ctx, resultsKey).Bytes()
	var results []ReportResult
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load report results: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(raw, &results); err != nil {
			return fmt.Errorf("decode report results: %w", err)
		}
	}

	results = append(results, result)
	if len(results) > maxStoredResults {
		results = results[len(results)-maxStoredResults:]
	}

	encoded, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode report results: %w", err)
	}
	if err := s.client.Set(ctx, resultsKey, encoded, 0).Err(); err != nil {
		return fmt.Errorf("store report results: %w", err)
	}
	return nil
}

var _ ReportStore = (*RedisReportStore)(nil)
