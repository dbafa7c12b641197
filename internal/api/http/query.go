package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// rangeQuery holds the startDate/endDate query parameters.
type rangeQuery struct {
	StartDate weather.Date
	EndDate   weather.Date
}

func (q *rangeQuery) bind(c *fiber.Ctx, required bool) error {
	startStr := c.Query("startDate")
	endStr := c.Query("endDate")
	if startStr == "" || endStr == "" {
		if required {
			return errors.New("startDate and endDate query parameters are required")
		}
		// A partial range means no range, as for an absent one.
		return nil
	}

	start, err := weather.ParseDate(startStr)
	if err != nil {
		return err
	}
	end, err := weather.ParseDate(endStr)
	if err != nil {
		return err
	}
	if end.Before(start.Time) {
		return errors.New("endDate must not be before startDate")
	}

	q.StartDate = start
	q.EndDate = end
	return nil
}

func (q rangeQuery) filter(sensorID string) weather.HistoryFilter {
	return weather.HistoryFilter{
		SensorID:  sensorID,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}
}
