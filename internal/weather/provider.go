package weather

import (
	"context"
)

// LookupProvider abstracts the geocoding and historical weather source (e.g. Open-Meteo).
type LookupProvider interface {
	Name() string
	Locations(ctx context.Context, name string) ([]Location, error)
	History(ctx context.Context, sensor SensorRequest) ([]HistoryRequest, error)
}

// Store is the contract the in-memory store and the gorm store must satisfy.
type Store interface {
	SaveSensor(sensor Sensor) error
	UpdateSensor(sensor Sensor) error
	GetSensor(id string) (Sensor, error)
	FindSensorByName(name string) (Sensor, error)
	ListSensors() ([]Sensor, error)
	DeleteSensor(id string) error

	SaveHistory(record HistoryRecord) error
	ListHistory(filter HistoryFilter) ([]HistoryRecord, error)
}
