package weather

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format of calendar dates.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the wire format of composite date + time-of-day values.
	DateTimeLayout = "2006-01-02T15:04"
	// TimeOfDayLayout is the wire format of a time of day.
	TimeOfDayLayout = "15:04"
)

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q; use YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	return NewDate(time.Now())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// MonthKey returns the YYYY-MM bucket label of the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateTime is a local date and time of day serialized as YYYY-MM-DDTHH:mm.
type DateTime struct {
	time.Time
}

var dateTimeLayouts = []string{
	DateTimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDateTime accepts YYYY-MM-DDTHH:mm, a space separated variant, seconds and RFC 3339.
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{t}, nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid date-time %q; use YYYY-MM-DDTHH:mm", s)
}

// Combine prefixes a HH:mm time of day with the record date.
func Combine(date Date, timeOfDay string) (DateTime, error) {
	tod, err := time.Parse(TimeOfDayLayout, strings.TrimSpace(timeOfDay))
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid time of day %q; use HH:mm", timeOfDay)
	}
	return DateTime{time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, time.UTC)}, nil
}

func (dt DateTime) String() string {
	if dt.IsZero() {
		return ""
	}
	return dt.Format(DateTimeLayout)
}

func (dt DateTime) MarshalJSON() ([]byte, error) {
	if dt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(dt.String())
}

func (dt *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*dt = DateTime{}
		return nil
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// Location is a geocoded place a sensor can be registered for.
type Location struct {
	Name        string  `json:"name"`
	Region      string  `json:"region,omitempty"`
	CountryCode string  `json:"countryCode"`
	TimeZone    string  `json:"timeZone"`
	Elevation   float64 `json:"elevation"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Description is the display text used for sensors registered from this location.
func (l Location) Description() string {
	if strings.TrimSpace(l.Region) == "" {
		return l.CountryCode
	}
	return l.Region + ", " + l.CountryCode
}

// SensorRequest converts the location into a registration request.
func (l Location) SensorRequest(loadSensorData bool) SensorRequest {
	return SensorRequest{
		Name:           l.Name,
		Description:    l.Description(),
		CountryCode:    l.CountryCode,
		TimeZone:       l.TimeZone,
		Elevation:      l.Elevation,
		Latitude:       l.Latitude,
		Longitude:      l.Longitude,
		LoadSensorData: loadSensorData,
	}
}

// Sensor is a registered weather station.
type Sensor struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CountryCode string  `json:"countryCode"`
	TimeZone    string  `json:"timeZone"`
	Elevation   float64 `json:"elevation"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	ModifiedAt time.Time `json:"-"`
}

// Label is the "name, description" text shown next to history rows.
func (s Sensor) Label() string {
	return s.Name + ", " + s.Description
}

// SensorRequest is the body of the sensor registration and update endpoints.
type SensorRequest struct {
	Name           string  `json:"name" validate:"required"`
	Description    string  `json:"description"`
	CountryCode    string  `json:"countryCode" validate:"required,iso3166_1_alpha2"`
	TimeZone       string  `json:"timeZone" validate:"required,timezone"`
	Elevation      float64 `json:"elevation"`
	Latitude       float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64 `json:"longitude" validate:"gte=-180,lte=180"`
	LoadSensorData bool    `json:"loadSensorData"`
}

// HistoryRequest is the wire payload of a history submission. The sensor id travels in the
// request path.
type HistoryRequest struct {
	RecordDate      Date     `json:"recordDate"`
	RainfallSum     *float64 `json:"rainfallSum,omitempty" validate:"omitempty,gte=0,lte=100"`
	SnowfallSum     *float64 `json:"snowfallSum,omitempty" validate:"omitempty,gte=0,lte=100"`
	Sunrise         DateTime `json:"sunrise"`
	Sunset          DateTime `json:"sunset"`
	TemperatureMean *float64 `json:"temperatureMean,omitempty" validate:"omitempty,gte=-50,lte=50"`
	TemperatureMin  *float64 `json:"temperatureMin,omitempty" validate:"omitempty,gte=-50,lte=50"`
	TemperatureMax  *float64 `json:"temperatureMax,omitempty" validate:"omitempty,gte=-50,lte=50"`
	WindDirection   *float64 `json:"windDirection,omitempty" validate:"omitempty,gte=0,lte=360"`
	WindSpeedMax    *float64 `json:"windSpeedMax,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// HistoryRecord is a persisted daily reading of a sensor.
type HistoryRecord struct {
	ID              string   `json:"id"`
	Sensor          Sensor   `json:"sensor"`
	RecordDate      Date     `json:"recordDate"`
	RainfallSum     float64  `json:"rainfallSum"`
	SnowfallSum     float64  `json:"snowfallSum"`
	Sunrise         DateTime `json:"sunrise"`
	Sunset          DateTime `json:"sunset"`
	TemperatureMean float64  `json:"temperatureMean"`
	TemperatureMin  float64  `json:"temperatureMin"`
	TemperatureMax  float64  `json:"temperatureMax"`
	WindDirection   int      `json:"windDirection"`
	WindSpeedMax    float64  `json:"windSpeedMax"`

	ModifiedAt time.Time `json:"-"`
}

// Metric identifies one tracked quantity of the aggregation. Its JSON value is the label.
type Metric string

const (
	MetricRainfall      Metric = "Rainfall (mm)"
	MetricSnowfall      Metric = "Snowfall (cm)"
	MetricTemperature   Metric = "Temperature (°C)"
	MetricWindDirection Metric = "Wind Direction (°)"
	MetricWindSpeed     Metric = "Wind Speed (km/h)"
)

// Metrics lists the tracked metrics in display order.
var Metrics = []Metric{
	MetricRainfall,
	MetricSnowfall,
	MetricTemperature,
	MetricWindDirection,
	MetricWindSpeed,
}

// AverageData is the min/max/mean of one metric within a bucket.
type AverageData struct {
	Metric    Metric  `json:"metric"`
	MeanValue float64 `json:"meanValue"`
	MinValue  float64 `json:"minValue"`
	MaxValue  float64 `json:"maxValue"`
}

// AverageResult maps bucket labels to per-metric statistics.
type AverageResult struct {
	StartDate Date                     `json:"startDate"`
	EndDate   Date                     `json:"endDate"`
	Data      map[string][]AverageData `json:"data"`
}

// Add appends a metric entry to the bucket.
func (r *AverageResult) Add(key string, metric Metric, mean, min, max float64) {
	if r.Data == nil {
		r.Data = make(map[string][]AverageData)
	}
	r.Data[key] = append(r.Data[key], AverageData{
		Metric:    metric,
		MeanValue: mean,
		MinValue:  min,
		MaxValue:  max,
	})
}

// HistoryFilter narrows history and average queries. Zero dates disable the range.
type HistoryFilter struct {
	SensorID  string
	StartDate Date
	EndDate   Date
}

// HasRange reports whether both range bounds are set.
func (f HistoryFilter) HasRange() bool {
	return !f.StartDate.IsZero() && !f.EndDate.IsZero()
}

// Contains reports whether d falls inside the filter's inclusive range.
func (f HistoryFilter) Contains(d Date) bool {
	if !f.HasRange() {
		return true
	}
	return !d.Before(f.StartDate.Time) && !d.After(f.EndDate.Time)
}
