package viewer

import (
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// PageSize is the number of grid rows per page.
const PageSize = 20

// Row is one line of the history grid.
type Row struct {
	ID              string
	Sensor          string
	RecordDate      string
	RainfallSum     float64
	SnowfallSum     float64
	Sunrise         string
	Sunset          string
	TemperatureMean float64
	TemperatureMin  float64
	TemperatureMax  float64
	WindDirection   int
	WindSpeedMax    float64
}

// Rows maps records to grid rows; the sensor column reads "name, description".
func Rows(records []weather.HistoryRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			ID:              r.ID,
			Sensor:          r.Sensor.Label(),
			RecordDate:      r.RecordDate.String(),
			RainfallSum:     r.RainfallSum,
			SnowfallSum:     r.SnowfallSum,
			Sunrise:         r.Sunrise.String(),
			Sunset:          r.Sunset.String(),
			TemperatureMean: r.TemperatureMean,
			TemperatureMin:  r.TemperatureMin,
			TemperatureMax:  r.TemperatureMax,
			WindDirection:   r.WindDirection,
			WindSpeedMax:    r.WindSpeedMax,
		})
	}
	return rows
}

// PageCount returns the number of pages needed for n rows.
func PageCount(n int) int {
	return (n + PageSize - 1) / PageSize
}

// Page returns the rows of the zero-based page, or nil past the end.
func Page(rows []Row, page int) []Row {
	if page < 0 {
		return nil
	}
	start := page * PageSize
	if start >= len(rows) {
		return nil
	}
	end := start + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
