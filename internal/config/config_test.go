package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "HTTP_TIMEOUT", "STORE_DRIVER", "DATABASE_PATH", "LOCATION_API_URL",
		"WEATHER_API_URL", "WEATHER_LOOKBACK_DAYS", "SEED_SENSORS", "SEED_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 365, cfg.LookbackDays)
	assert.Equal(t, []string{"Cork", "Dublin", "Galway", "Letterkenny"}, cfg.SeedSensors)
	assert.Equal(t, time.Hour, cfg.SeedInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SEED_SENSORS", " Cork , ,Sligo")
	t.Setenv("WEATHER_LOOKBACK_DAYS", "30")
	t.Setenv("SEED_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"Cork", "Sligo"}, cfg.SeedSensors)
	assert.Equal(t, 30, cfg.LookbackDays)
	assert.Equal(t, 15*time.Minute, cfg.SeedInterval)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)
}
