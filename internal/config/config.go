// Package config loads and validates environment variables at startup.
// Fail-fast: if a variable is present but malformed, Load returns an error and
// the process exits. Provider credentials are optional; a missing key only
// disables that provider.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the jobsearch service.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Optional backing stores. Empty means "run without".
	DatabaseURL string
	RedisURL    string

	RemotiveEnabled bool
	AdzunaAppID     string
	AdzunaAppKey    string
	AdzunaCountry   string // e.g. "in", "gb", "us"
	RapidAPIKey     string

	SearchLocation  string        // location preference sent to providers
	Region          string        // substring the region-only filter looks for
	PageSize        int           // listings per page
	SourceTimeout   time.Duration // per-provider deadline inside one run
	FetchMaxRetries uint64        // extra attempts on transport errors and 5xx
	SessionTTL      time.Duration // idle sessions older than this are dropped

	ScheduleIntervalHours int // How often saved searches are re-run
}

// Load reads a .env file when present, then environment variables, and
// returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	pageSize, err := positiveInt("PAGE_SIZE", 6)
	if err != nil {
		return nil, err
	}
	interval, err := positiveInt("SCHEDULE_INTERVAL_HOURS", 6)
	if err != nil {
		return nil, err
	}
	retries, err := nonNegativeInt("FETCH_MAX_RETRIES", 1)
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := duration("SOURCE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := duration("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	remotive, err := boolean("REMOTIVE_ENABLED", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                  getenv("JOBSEARCH_PORT", "8083"),
		Environment:           getenv("APP_ENV", "development"),
		LogLevel:              getenv("LOG_LEVEL", "info"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		RemotiveEnabled:       remotive,
		AdzunaAppID:           os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:          os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:         getenv("ADZUNA_COUNTRY", "in"),
		RapidAPIKey:           os.Getenv("RAPIDAPI_KEY"),
		SearchLocation:        getenv("SEARCH_LOCATION", "India"),
		Region:                strings.ToLower(getenv("REGION_FILTER", "india")),
		PageSize:              pageSize,
		SourceTimeout:         sourceTimeout,
		FetchMaxRetries:       uint64(retries),
		SessionTTL:            sessionTTL,
		ScheduleIntervalHours: interval,
	}, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func nonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, s)
	}
	return v, nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, s)
	}
	return v, nil
}

func boolean(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, s)
	}
	return v, nil
}
