package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercraft/jobsearch-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"JOBSEARCH_PORT", "PAGE_SIZE", "REGION_FILTER", "SOURCE_TIMEOUT",
		"FETCH_MAX_RETRIES", "SESSION_TTL", "REMOTIVE_ENABLED", "ADZUNA_COUNTRY",
		"SCHEDULE_INTERVAL_HOURS", "DATABASE_URL", "REDIS_URL", "SEARCH_LOCATION",
	} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, "india", cfg.Region)
	assert.Equal(t, "in", cfg.AdzunaCountry)
	assert.Equal(t, "India", cfg.SearchLocation)
	assert.Equal(t, 10*time.Second, cfg.SourceTimeout)
	assert.Equal(t, uint64(1), cfg.FetchMaxRetries)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.RemotiveEnabled)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("REGION_FILTER", "UK")
	t.Setenv("FETCH_MAX_RETRIES", "0")
	t.Setenv("REMOTIVE_ENABLED", "false")
	t.Setenv("SOURCE_TIMEOUT", "3s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "uk", cfg.Region, "region is lower-cased for case-insensitive matching")
	assert.Equal(t, uint64(0), cfg.FetchMaxRetries)
	assert.False(t, cfg.RemotiveEnabled)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"PAGE_SIZE":               "0",
		"SCHEDULE_INTERVAL_HOURS": "soon",
		"FETCH_MAX_RETRIES":       "-1",
		"SOURCE_TIMEOUT":          "ten",
		"REMOTIVE_ENABLED":        "maybe",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
