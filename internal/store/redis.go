package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agency_portal_backend/internal/leads/domain"

	"github.com/redis/go-redis/v9"
)

const (
	leadsKey     = "leads:all"
	settingsKey  = "leads:settings"
	schedulerKey = "automation:state"
)

// RedisStore persists the lead subsystem state in Redis under three fixed keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store from a Redis URL
// (e.g. redis://localhost:6379/0).
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opt)}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client exposes the underlying Redis client so sibling stores can share
// the same connection pool.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// LoadAll returns the full lead collection.
func (s *RedisStore) LoadAll(ctx context.Context) ([]domain.Lead, error) {
	raw, err := s.client.Get(ctx, leadsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}

	var leads []domain.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		return nil, fmt.Errorf("decode leads: %w", err)
	}
	return leads, nil
}

// ReplaceAll swaps the full lead collection in a single SET.
func (s *RedisStore) ReplaceAll(ctx context.Context, leads []domain.Lead) error {
	if leads == nil {
		leads = []domain.Lead{}
	}
	raw, err := json.Marshal(leads)
	if err != nil {
		return fmt.Errorf("encode leads: %w", err)
	}
	if err := s.client.Set(ctx, leadsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("store leads: %w", err)
	}
	return nil
}

// LoadSettings returns persisted settings, or nil when never saved.
func (s *RedisStore) LoadSettings(ctx context.Context) (*Settings, error) {
	raw, err := s.client.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings persists the settings record.
func (s *RedisStore) SaveSettings(ctx context.Context, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.client.Set(ctx, settingsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}

// LoadSchedulerState returns the last persisted scheduler state, or nil.
func (s *RedisStore) LoadSchedulerState(ctx context.Context) (*SchedulerState, error) {
	raw, err := s.client.Get(ctx, schedulerKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scheduler state: %w", err)
	}

	var state SchedulerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode scheduler state: %w", err)
	}
	return &state, nil
}

// SaveSchedulerState persists the scheduler state record.
func (s *RedisStore) SaveSchedulerState(ctx context.Context, state SchedulerState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode scheduler state: %w", err)
	}
	if err := s.client.Set(ctx, schedulerKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("store scheduler state: %w", err)
	}
	return nil
}

// Compile-time check that RedisStore implements LeadStore.
var _ LeadStore = (*RedisStore)(nil)
