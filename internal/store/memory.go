package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	sensors map[string]weather.Sensor

	// key: sensor id, value: history records in insertion order
	history map[string][]weather.HistoryRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sensors: make(map[string]weather.Sensor),
		history: make(map[string][]weather.HistoryRecord),
	}
}

// SaveSensor adds a new sensor. Names are unique, ignoring case.
func (s *MemoryStore) SaveSensor(sensor weather.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sensors {
		if strings.EqualFold(existing.Name, sensor.Name) {
			return fmt.Errorf("%w: %s", weather.ErrDuplicate, sensor.Name)
		}
	}
	s.sensors[sensor.ID] = sensor
	return nil
}

// UpdateSensor replaces a stored sensor.
func (s *MemoryStore) UpdateSensor(sensor weather.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sensors[sensor.ID]; !ok {
		return fmt.Errorf("sensor %s: %w", sensor.ID, weather.ErrNotFound)
	}
	s.sensors[sensor.ID] = sensor
	return nil
}

// GetSensor returns the sensor with the given id.
func (s *MemoryStore) GetSensor(id string) (weather.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sensor, ok := s.sensors[id]
	if !ok {
		return weather.Sensor{}, fmt.Errorf("sensor %s: %w", id, weather.ErrNotFound)
	}
	return sensor, nil
}

// FindSensorByName returns the sensor registered under name, ignoring case.
func (s *MemoryStore) FindSensorByName(name string) (weather.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sensor := range s.sensors {
		if strings.EqualFold(sensor.Name, name) {
			return sensor, nil
		}
	}
	return weather.Sensor{}, fmt.Errorf("sensor %q: %w", name, weather.ErrNotFound)
}

// ListSensors returns all sensors in no particular order.
func (s *MemoryStore) ListSensors() ([]weather.Sensor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]weather.Sensor, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		result = append(result, sensor)
	}
	return result, nil
}

// DeleteSensor removes a sensor and its history.
func (s *MemoryStore) DeleteSensor(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sensors[id]; !ok {
		return fmt.Errorf("sensor %s: %w", id, weather.ErrNotFound)
	}
	delete(s.sensors, id)
	delete(s.history, id)
	return nil
}

// SaveHistory appends a history record for its sensor.
func (s *MemoryStore) SaveHistory(record weather.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sensors[record.Sensor.ID]; !ok {
		return fmt.Errorf("sensor %s: %w", record.Sensor.ID, weather.ErrNotFound)
	}
	s.history[record.Sensor.ID] = append(s.history[record.Sensor.ID], record)
	return nil
}

// ListHistory returns records matching the filter. The embedded sensor reflects its
// current stored state.
func (s *MemoryStore) ListHistory(filter weather.HistoryFilter) ([]weather.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.HistoryRecord
	for sensorID, records := range s.history {
		if filter.SensorID != "" && filter.SensorID != sensorID {
			continue
		}
		sensor := s.sensors[sensorID]
		for _, r := range records {
			if !filter.Contains(r.RecordDate) {
				continue
			}
			r.Sensor = sensor
			result = append(result, r)
		}
	}
	return result, nil
}
