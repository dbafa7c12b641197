package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-sensor-history/internal/common"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

type AppConfig struct {
	Port string

	// HTTPTimeout bounds outbound calls to the lookup provider.
	HTTPTimeout time.Duration

	// Persistence: "memory" or "sqlite".
	StoreDriver  string
	DatabasePath string

	// Open-Meteo endpoints and the history import window.
	LocationAPIURL string
	WeatherAPIURL  string
	LookbackDays   int

	// Sensors registered at startup, retried every SeedInterval until they exist.
	SeedSensors  []string
	SeedInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.StoreDriver = getenvDefault("STORE_DRIVER", StoreDriverSQLite)
	switch cfg.StoreDriver {
	case StoreDriverMemory, StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: use %s or %s", cfg.StoreDriver, StoreDriverMemory, StoreDriverSQLite)
	}
	cfg.DatabasePath = getenvDefault("DATABASE_PATH", "weather.db")

	cfg.LocationAPIURL = os.Getenv("LOCATION_API_URL")
	cfg.WeatherAPIURL = os.Getenv("WEATHER_API_URL")
	cfg.LookbackDays = getenvInt("WEATHER_LOOKBACK_DAYS", 365)

	cfg.SeedSensors = common.SplitList(getenvDefault("SEED_SENSORS", "Cork,Dublin,Galway,Letterkenny"))

	seedInterval, err := time.ParseDuration(getenvDefault("SEED_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_INTERVAL: %w", err)
	}
	cfg.SeedInterval = seedInterval

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
