package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultArchiveURL   = "https://archive-api.open-meteo.com/v1/archive"
)

// The archive lags real time by a few days.
const archiveDelayDays = 5

var dailyKeys = []string{
	"temperature_2m_max", "temperature_2m_min", "temperature_2m_mean", "sunrise", "sunset",
	"rain_sum", "snowfall_sum", "wind_speed_10m_max", "wind_direction_10m_dominant",
}

// OpenMeteoConfig configures the Open-Meteo lookup provider.
type OpenMeteoConfig struct {
	GeocodingURL string
	ArchiveURL   string
	LookbackDays int
	CacheTTL     time.Duration
}

// OpenMeteoProvider implements weather.LookupProvider on the Open-Meteo geocoding and
// historical archive APIs.
type OpenMeteoProvider struct {
	name         string
	geocodingURL string
	archiveURL   string
	lookbackDays int
	httpCfg      HTTPClientConfig
	circuit      *gobreaker.CircuitBreaker
	locations    *cache.Cache
	now          func() time.Time
}

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig) *OpenMeteoProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.ArchiveURL == "" {
		cfg.ArchiveURL = DefaultArchiveURL
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 365
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	return &OpenMeteoProvider{
		name:         "openmeteo",
		geocodingURL: cfg.GeocodingURL,
		archiveURL:   cfg.ArchiveURL,
		lookbackDays: cfg.LookbackDays,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit:   cb,
		locations: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		now:       time.Now,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Locations geocodes name into at most ten candidate locations. Results are cached per
// lower-cased name.
func (p *OpenMeteoProvider) Locations(ctx context.Context, name string) ([]weather.Location, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cached, ok := p.locations.Get(key); ok {
		return cached.([]weather.Location), nil
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", name)
		values.Set("count", "10")
		values.Set("language", "en")
		values.Set("format", "json")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.geocodingURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name        string  `json:"name"`
			Admin1      string  `json:"admin1"`
			CountryCode string  `json:"country_code"`
			Timezone    string  `json:"timezone"`
			Elevation   float64 `json:"elevation"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo geocoding response: %w", err)
	}

	locations := make([]weather.Location, 0, len(payload.Results))
	for _, r := range payload.Results {
		locations = append(locations, weather.Location{
			Name:        r.Name,
			Region:      r.Admin1,
			CountryCode: r.CountryCode,
			TimeZone:    r.Timezone,
			Elevation:   r.Elevation,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}

	p.locations.SetDefault(key, locations)
	return locations, nil
}

// History downloads the daily archive for the sensor position, ending archiveDelayDays
// before today and spanning the configured lookback.
func (p *OpenMeteoProvider) History(ctx context.Context, sensor weather.SensorRequest) ([]weather.HistoryRequest, error) {
	end := weather.NewDate(p.now()).AddDays(-archiveDelayDays)
	start := end.AddDays(-p.lookbackDays)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(sensor.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(sensor.Longitude, 'f', -1, 64))
		values.Set("start_date", start.String())
		values.Set("end_date", end.String())
		values.Set("daily", strings.Join(dailyKeys, ","))
		if sensor.TimeZone != "" {
			values.Set("timezone", sensor.TimeZone)
		}

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.archiveURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time            []string   `json:"time"`
			RainSum         []*float64 `json:"rain_sum"`
			SnowfallSum     []*float64 `json:"snowfall_sum"`
			Sunrise         []string   `json:"sunrise"`
			Sunset          []string   `json:"sunset"`
			TemperatureMean []*float64 `json:"temperature_2m_mean"`
			TemperatureMin  []*float64 `json:"temperature_2m_min"`
			TemperatureMax  []*float64 `json:"temperature_2m_max"`
			WindDirection   []*float64 `json:"wind_direction_10m_dominant"`
			WindSpeedMax    []*float64 `json:"wind_speed_10m_max"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo archive response: %w", err)
	}

	daily := payload.Daily
	history := make([]weather.HistoryRequest, 0, len(daily.Time))
	for i, day := range daily.Time {
		date, err := weather.ParseDate(day)
		if err != nil {
			return nil, err
		}
		sunrise, err := parseOptionalDateTime(at(daily.Sunrise, i))
		if err != nil {
			return nil, err
		}
		sunset, err := parseOptionalDateTime(at(daily.Sunset, i))
		if err != nil {
			return nil, err
		}

		history = append(history, weather.HistoryRequest{
			RecordDate:      date,
			RainfallSum:     at(daily.RainSum, i),
			SnowfallSum:     at(daily.SnowfallSum, i),
			Sunrise:         sunrise,
			Sunset:          sunset,
			TemperatureMean: at(daily.TemperatureMean, i),
			TemperatureMin:  at(daily.TemperatureMin, i),
			TemperatureMax:  at(daily.TemperatureMax, i),
			WindDirection:   at(daily.WindDirection, i),
			WindSpeedMax:    at(daily.WindSpeedMax, i),
		})
	}

	return history, nil
}

// at returns values[i] or the zero value when the series is shorter than the time axis.
func at[T any](values []T, i int) T {
	var zero T
	if i >= len(values) {
		return zero
	}
	return values[i]
}

// parseOptionalDateTime treats a blank value (polar day or night) as unset.
func parseOptionalDateTime(s string) (weather.DateTime, error) {
	if strings.TrimSpace(s) == "" {
		return weather.DateTime{}, nil
	}
	return weather.ParseDateTime(s)
}
