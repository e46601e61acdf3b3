package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/foodtruckfinder/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("GEOLOCATION_PROVIDER", "")
	t.Setenv("DATASET_PROVIDER", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mock", cfg.Geolocation.Provider)
	assert.Equal(t, "en", cfg.Geolocation.Language)
	assert.Equal(t, "socrata", cfg.Dataset.Provider)
	assert.Equal(t, "rqzj-sfat", cfg.Dataset.DatasetID)
	assert.Equal(t, 5*time.Minute, cfg.Dataset.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GEOLOCATION_PROVIDER", "google")
	t.Setenv("DATASET_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("SESSION_IDLE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "google", cfg.Geolocation.Provider)
	assert.Equal(t, 30*time.Second, cfg.Dataset.CacheTTL)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("GEOLOCATION_PROVIDER", "bing")

	_, err := config.Load()
	assert.Error(t, err)
}
