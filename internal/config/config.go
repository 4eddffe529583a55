package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"os"
)

type Config struct {
	Env             string
	HTTPAddr        string
	RedisURL        string
	JWTAccessSecret string
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool

	// Automation scheduler
	SchedulerInterval time.Duration
	FollowUpDays      []int

	// Lead SLA targets, measured in hours from lead creation
	SLAFirstContactHours  int
	SLAQualificationHours int
	SLAConversionHours    int

	// Scoring factor weights; the five weights should total 100
	WeightContactQuality  int
	WeightIntentClarity   int
	WeightBudgetRealism   int
	WeightTimelineUrgency int
	WeightSourceQuality   int

	// Converted leads are archived after this many days
	AutoArchiveDays int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		RedisURL:              getEnv("REDIS_URL", ""),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		SchedulerInterval:     mustDuration(getEnv("AUTOMATION_INTERVAL", "5m")),
		FollowUpDays:          splitInts(getEnv("FOLLOW_UP_DAYS", "0,7,14,21")),
		SLAFirstContactHours:  envInt("SLA_FIRST_CONTACT_HOURS", 2),
		SLAQualificationHours: envInt("SLA_QUALIFICATION_HOURS", 24),
		SLAConversionHours:    envInt("SLA_CONVERSION_HOURS", 48),
		WeightContactQuality:  envInt("WEIGHT_CONTACT_QUALITY", 20),
		WeightIntentClarity:   envInt("WEIGHT_INTENT_CLARITY", 20),
		WeightBudgetRealism:   envInt("WEIGHT_BUDGET_REALISM", 20),
		WeightTimelineUrgency: envInt("WEIGHT_TIMELINE_URGENCY", 20),
		WeightSourceQuality:   envInt("WEIGHT_SOURCE_QUALITY", 20),
		AutoArchiveDays:       envInt("AUTO_ARCHIVE_DAYS", 30),
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("AUTOMATION_INTERVAL must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// GetJWTAccessSecret satisfies httpkit.JWTConfig.
func (c *Config) GetJWTAccessSecret() string {
	return c.JWTAccessSecret
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func splitInts(value string) []int {
	results := make([]int, 0)
	for _, part := range splitCSV(value) {
		parsed, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		results = append(results, parsed)
	}
	return results
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
