// Package historyform holds the state of the "add sensor history" form: the draft being
// edited, its validation, and the single submission it allows at a time.
package historyform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// Field names a draft field by its wire name.
type Field string

const (
	FieldSensorID        Field = "sensorId"
	FieldRecordDate      Field = "recordDate"
	FieldRainfallSum     Field = "rainfallSum"
	FieldSnowfallSum     Field = "snowfallSum"
	FieldSunrise         Field = "sunrise"
	FieldSunset          Field = "sunset"
	FieldTemperatureMean Field = "temperatureMean"
	FieldTemperatureMin  Field = "temperatureMin"
	FieldTemperatureMax  Field = "temperatureMax"
	FieldWindDirection   Field = "windDirection"
	FieldWindSpeedMax    Field = "windSpeedMax"
)

// ErrReadOnlyField is returned when the sensor id is edited directly.
var ErrReadOnlyField = errors.New("field is derived from the selected sensor")

// Draft is an in-progress history record. Nil fields are unset. A Draft is a value: the
// pointed-to values are never modified, every change produces a new Draft.
type Draft struct {
	SensorID        string     `json:"sensorId" validate:"required"`
	RecordDate      *time.Time `json:"recordDate" validate:"required,notfuture"`
	RainfallSum     *float64   `json:"rainfallSum" validate:"omitempty,gte=0,lte=100"`
	SnowfallSum     *float64   `json:"snowfallSum" validate:"omitempty,gte=0,lte=100"`
	Sunrise         *string    `json:"sunrise" validate:"required,datetime=15:04"`
	Sunset          *string    `json:"sunset" validate:"required,datetime=15:04"`
	TemperatureMean *float64   `json:"temperatureMean" validate:"omitempty,gte=-50,lte=50"`
	TemperatureMin  *float64   `json:"temperatureMin" validate:"omitempty,gte=-50,lte=50"`
	TemperatureMax  *float64   `json:"temperatureMax" validate:"omitempty,gte=-50,lte=50"`
	WindDirection   *float64   `json:"windDirection" validate:"omitempty,gt=0,lte=360,wholenumber"`
	WindSpeedMax    *float64   `json:"windSpeedMax" validate:"omitempty,gte=0,lte=100"`
}

// Set returns a copy of d with field parsed from raw. Blank input unsets the field.
func (d Draft) Set(field Field, raw string) (Draft, error) {
	next := d.Clone()
	raw = strings.TrimSpace(raw)

	switch field {
	case FieldSensorID:
		return d, fmt.Errorf("%s: %w", field, ErrReadOnlyField)
	case FieldRecordDate:
		if raw == "" {
			next.RecordDate = nil
			return next, nil
		}
		date, err := weather.ParseDate(raw)
		if err != nil {
			return d, fmt.Errorf("%s: %w", field, err)
		}
		next.RecordDate = &date.Time
		return next, nil
	case FieldSunrise:
		next.Sunrise = optionalString(raw)
		return next, nil
	case FieldSunset:
		next.Sunset = optionalString(raw)
		return next, nil
	}

	target := next.number(field)
	if target == nil {
		return d, fmt.Errorf("unknown field %q", field)
	}
	if raw == "" {
		*target = nil
		return next, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return d, fmt.Errorf("%s: %q is not a number", field, raw)
	}
	*target = &v
	return next, nil
}

// number returns the address of the numeric field, or nil for other fields.
func (d *Draft) number(field Field) **float64 {
	switch field {
	case FieldRainfallSum:
		return &d.RainfallSum
	case FieldSnowfallSum:
		return &d.SnowfallSum
	case FieldTemperatureMean:
		return &d.TemperatureMean
	case FieldTemperatureMin:
		return &d.TemperatureMin
	case FieldTemperatureMax:
		return &d.TemperatureMax
	case FieldWindDirection:
		return &d.WindDirection
	case FieldWindSpeedMax:
		return &d.WindSpeedMax
	}
	return nil
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	return Draft{
		SensorID:        d.SensorID,
		RecordDate:      clonePtr(d.RecordDate),
		RainfallSum:     clonePtr(d.RainfallSum),
		SnowfallSum:     clonePtr(d.SnowfallSum),
		Sunrise:         clonePtr(d.Sunrise),
		Sunset:          clonePtr(d.Sunset),
		TemperatureMean: clonePtr(d.TemperatureMean),
		TemperatureMin:  clonePtr(d.TemperatureMin),
		TemperatureMax:  clonePtr(d.TemperatureMax),
		WindDirection:   clonePtr(d.WindDirection),
		WindSpeedMax:    clonePtr(d.WindSpeedMax),
	}
}

// IsEmpty reports whether no field is set.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// Payload converts the draft into the request body: the sensor id is dropped (it goes into
// the path) and sunrise/sunset are prefixed with the record date.
func (d Draft) Payload() (weather.HistoryRequest, error) {
	if d.RecordDate == nil || d.Sunrise == nil || d.Sunset == nil {
		return weather.HistoryRequest{}, errors.New("record date, sunrise and sunset are required")
	}
	date := weather.NewDate(*d.RecordDate)

	sunrise, err := weather.Combine(date, *d.Sunrise)
	if err != nil {
		return weather.HistoryRequest{}, fmt.Errorf("%s: %w", FieldSunrise, err)
	}
	sunset, err := weather.Combine(date, *d.Sunset)
	if err != nil {
		return weather.HistoryRequest{}, fmt.Errorf("%s: %w", FieldSunset, err)
	}

	return weather.HistoryRequest{
		RecordDate:      date,
		RainfallSum:     clonePtr(d.RainfallSum),
		SnowfallSum:     clonePtr(d.SnowfallSum),
		Sunrise:         sunrise,
		Sunset:          sunset,
		TemperatureMean: clonePtr(d.TemperatureMean),
		TemperatureMin:  clonePtr(d.TemperatureMin),
		TemperatureMax:  clonePtr(d.TemperatureMax),
		WindDirection:   clonePtr(d.WindDirection),
		WindSpeedMax:    clonePtr(d.WindSpeedMax),
	}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
