package httpapi

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	api := app.Group("/api")

	sensors := api.Group("/sensors")

	sensors.Post("/", func(c *fiber.Ctx) error {
		var req weather.SensorRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		sensor, err := service.CreateSensor(c.UserContext(), req)
		if err != nil {
			return serviceError(err, "failed to register sensor")
		}
		return c.JSON(sensor)
	})

	sensors.Get("/", func(c *fiber.Ctx) error {
		result, err := service.SearchSensors(c.Query("query"))
		if err != nil {
			return serviceError(err, "failed to search sensors")
		}
		return c.JSON(result)
	})

	// Static paths are registered before /:sensorId so they are not captured by it.
	sensors.Get("/averages", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c, true); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Averages(q.filter(""))
		if err != nil {
			return serviceError(err, "failed to aggregate sensor history")
		}
		return c.JSON(result)
	})

	sensors.Get("/history", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c, false); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.ListHistory(q.filter(""))
		if err != nil {
			return serviceError(err, "failed to fetch sensor history")
		}
		return c.JSON(records)
	})

	sensors.Get("/:sensorId", func(c *fiber.Ctx) error {
		sensor, err := service.GetSensor(c.Params("sensorId"))
		if err != nil {
			return serviceError(err, "failed to fetch sensor")
		}
		return c.JSON(sensor)
	})

	sensors.Post("/:sensorId", func(c *fiber.Ctx) error {
		var req weather.SensorRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.StructPartial(req, "Latitude", "Longitude"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sensor, err := service.UpdateSensor(c.Params("sensorId"), req)
		if err != nil {
			return serviceError(err, "failed to update sensor")
		}
		return c.JSON(sensor)
	})

	sensors.Delete("/:sensorId", func(c *fiber.Ctx) error {
		if err := service.DeleteSensor(c.Params("sensorId")); err != nil {
			return serviceError(err, "failed to delete sensor")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	sensors.Get("/:sensorId/averages", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c, true); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.Averages(q.filter(c.Params("sensorId")))
		if err != nil {
			return serviceError(err, "failed to aggregate sensor history")
		}
		return c.JSON(result)
	})

	sensors.Get("/:sensorId/history", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c, false); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.ListHistory(q.filter(c.Params("sensorId")))
		if err != nil {
			return serviceError(err, "failed to fetch sensor history")
		}
		return c.JSON(records)
	})

	sensors.Post("/:sensorId/history", func(c *fiber.Ctx) error {
		var req weather.HistoryRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if err := checkHistoryRequest(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		record, err := service.CreateHistory(c.Params("sensorId"), req)
		if err != nil {
			return serviceError(err, "failed to add sensor history")
		}
		return c.JSON(record)
	})

	api.Post("/lookup/locations", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		locations, err := service.LookupLocations(c.UserContext(), req.Name)
		if err != nil {
			return serviceError(err, "failed to look up locations")
		}
		return c.JSON(locations)
	})
}

// locationRequest is the body of the location lookup endpoint.
type locationRequest struct {
	Name string `json:"name" validate:"required"`
}

// bindJSON parses the request body into out and validates its struct tags.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// checkHistoryRequest enforces the fields validator tags cannot express on the date types.
func checkHistoryRequest(req weather.HistoryRequest) error {
	if req.RecordDate.IsZero() {
		return errors.New("recordDate is required")
	}
	if req.RecordDate.After(weather.Today().Time) {
		return errors.New("recordDate must not be in the future")
	}
	if req.Sunrise.IsZero() || req.Sunset.IsZero() {
		return errors.New("sunrise and sunset are required")
	}
	return nil
}

// serviceError maps domain errors onto HTTP status codes.
func serviceError(err error, msg string) error {
	switch {
	case errors.Is(err, weather.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrDuplicate):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, weather.ErrNoProvider):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("ERROR: %s: %v", msg, err)
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	}
}
