package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-sensor-history/internal/common"
)

var (
	// ErrNotFound is returned when a sensor or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a sensor name is already registered.
	ErrDuplicate = errors.New("sensor name already registered")
	// ErrNoProvider is returned when a lookup is requested without a configured provider.
	ErrNoProvider = errors.New("no lookup provider configured")
)

// Service orchestrates sensor registration, history persistence and aggregation.
type Service struct {
	store  Store
	lookup LookupProvider
	now    func() time.Time
}

// NewService creates a new Service. lookup may be nil, which disables location lookups and
// history imports.
func NewService(store Store, lookup LookupProvider) *Service {
	return &Service{
		store:  store,
		lookup: lookup,
		now:    time.Now,
	}
}

// CreateSensor registers a sensor and, when requested, imports its recent history from the
// lookup provider. A failed import does not undo the registration.
func (s *Service) CreateSensor(ctx context.Context, req SensorRequest) (Sensor, error) {
	if _, err := s.store.FindSensorByName(req.Name); err == nil {
		return Sensor{}, fmt.Errorf("%w: %s", ErrDuplicate, req.Name)
	} else if !errors.Is(err, ErrNotFound) {
		return Sensor{}, err
	}

	sensor := Sensor{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		CountryCode: req.CountryCode,
		TimeZone:    req.TimeZone,
		Elevation:   req.Elevation,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ModifiedAt:  s.now().UTC(),
	}
	if err := s.store.SaveSensor(sensor); err != nil {
		return Sensor{}, err
	}
	log.Printf("INFO: registered sensor %s (%s)", sensor.Name, sensor.ID)

	if req.LoadSensorData {
		s.importHistory(ctx, sensor, req)
	}

	return sensor, nil
}

func (s *Service) importHistory(ctx context.Context, sensor Sensor, req SensorRequest) {
	if s.lookup == nil {
		log.Printf("DEBUG: no lookup provider; skipping history import for %s", sensor.Name)
		return
	}

	history, err := s.lookup.History(ctx, req)
	if err != nil {
		log.Printf("ERROR: provider %s history import failed for %s: %v", s.lookup.Name(), sensor.Name, err)
		return
	}

	imported := 0
	for _, h := range history {
		if _, err := s.createHistory(sensor, h); err != nil {
			log.Printf("ERROR: failed to store imported history for %s on %s: %v", sensor.Name, h.RecordDate, err)
			continue
		}
		imported++
	}
	log.Printf("INFO: imported %d history records for %s", imported, sensor.Name)
}

// GetSensor returns a sensor by id.
func (s *Service) GetSensor(id string) (Sensor, error) {
	return s.store.GetSensor(id)
}

// SearchSensors returns sensors whose name contains query, ignoring case. A blank query
// matches nothing.
func (s *Service) SearchSensors(query string) ([]Sensor, error) {
	result := []Sensor{}
	if strings.TrimSpace(query) == "" {
		return result, nil
	}

	sensors, err := s.store.ListSensors()
	if err != nil {
		return nil, err
	}
	for _, sensor := range sensors {
		if common.ContainsFold(sensor.Name, query) {
			result = append(result, sensor)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// UpdateSensor changes the position of a sensor. Name, description, country and time zone
// are fixed at registration.
func (s *Service) UpdateSensor(id string, req SensorRequest) (Sensor, error) {
	sensor, err := s.store.GetSensor(id)
	if err != nil {
		return Sensor{}, err
	}
	sensor.Elevation = req.Elevation
	sensor.Latitude = req.Latitude
	sensor.Longitude = req.Longitude
	sensor.ModifiedAt = s.now().UTC()

	if err := s.store.UpdateSensor(sensor); err != nil {
		return Sensor{}, err
	}
	return sensor, nil
}

// DeleteSensor removes a sensor together with its history.
func (s *Service) DeleteSensor(id string) error {
	return s.store.DeleteSensor(id)
}

// CreateHistory stores a history record for the sensor. Absent numeric values are stored as 0.
func (s *Service) CreateHistory(sensorID string, req HistoryRequest) (HistoryRecord, error) {
	sensor, err := s.store.GetSensor(sensorID)
	if err != nil {
		return HistoryRecord{}, err
	}
	return s.createHistory(sensor, req)
}

func (s *Service) createHistory(sensor Sensor, req HistoryRequest) (HistoryRecord, error) {
	record := HistoryRecord{
		ID:              uuid.NewString(),
		Sensor:          sensor,
		RecordDate:      req.RecordDate,
		RainfallSum:     valueOrZero(req.RainfallSum),
		SnowfallSum:     valueOrZero(req.SnowfallSum),
		Sunrise:         req.Sunrise,
		Sunset:          req.Sunset,
		TemperatureMean: valueOrZero(req.TemperatureMean),
		TemperatureMin:  valueOrZero(req.TemperatureMin),
		TemperatureMax:  valueOrZero(req.TemperatureMax),
		WindDirection:   int(math.Round(valueOrZero(req.WindDirection))),
		WindSpeedMax:    valueOrZero(req.WindSpeedMax),
		ModifiedAt:      s.now().UTC(),
	}
	if err := s.store.SaveHistory(record); err != nil {
		return HistoryRecord{}, err
	}
	return record, nil
}

// ListHistory returns matching history records, newest record date first.
func (s *Service) ListHistory(filter HistoryFilter) ([]HistoryRecord, error) {
	records, err := s.store.ListHistory(filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordDate.After(records[j].RecordDate.Time)
	})
	return records, nil
}

// Averages aggregates history within the filter's range. A single sensor is bucketed by
// month; across all sensors the bucket is the sensor name.
func (s *Service) Averages(filter HistoryFilter) (AverageResult, error) {
	if filter.SensorID != "" {
		if _, err := s.store.GetSensor(filter.SensorID); err != nil {
			return AverageResult{}, err
		}
	}

	records, err := s.store.ListHistory(filter)
	if err != nil {
		return AverageResult{}, err
	}

	key := BySensorName
	if filter.SensorID != "" {
		key = ByMonth
	}
	return AggregateHistory(filter.StartDate, filter.EndDate, records, key), nil
}

// LookupLocations geocodes a place name through the lookup provider.
func (s *Service) LookupLocations(ctx context.Context, name string) ([]Location, error) {
	if s.lookup == nil {
		return nil, ErrNoProvider
	}
	if strings.TrimSpace(name) == "" {
		return []Location{}, nil
	}
	return s.lookup.Locations(ctx, name)
}

// SeedSensors registers, with history import, every named place that has no sensor yet.
// Names the provider cannot resolve are skipped.
func (s *Service) SeedSensors(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := s.store.FindSensorByName(name); err == nil {
			continue
		}

		locations, err := s.LookupLocations(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("lookup %s: %w", name, err))
			continue
		}
		if len(locations) == 0 {
			log.Printf("INFO: no location found for seed sensor %s", name)
			continue
		}

		if _, err := s.CreateSensor(ctx, locations[0].SensorRequest(true)); err != nil && !errors.Is(err, ErrDuplicate) {
			errs = append(errs, fmt.Errorf("create %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
