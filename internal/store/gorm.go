package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

type sensorRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	CountryCode string  `gorm:"not null"`
	TimeZone    string  `gorm:"not null"`
	Elevation   float64 `gorm:"not null"`
	Latitude    float64 `gorm:"not null"`
	Longitude   float64 `gorm:"not null"`
	ModifiedAt  time.Time
}

func (sensorRow) TableName() string { return "sensors" }

type historyRow struct {
	ID              string    `gorm:"primaryKey;size:36"`
	SensorID        string    `gorm:"size:36;index;not null"`
	Sensor          sensorRow `gorm:"foreignKey:SensorID"`
	RecordDate      time.Time `gorm:"index;not null"`
	RainfallSum     float64   `gorm:"not null"`
	SnowfallSum     float64   `gorm:"not null"`
	Sunrise         time.Time `gorm:"not null"`
	Sunset          time.Time `gorm:"not null"`
	TemperatureMean float64   `gorm:"not null"`
	TemperatureMin  float64   `gorm:"not null"`
	TemperatureMax  float64   `gorm:"not null"`
	WindDirection   int       `gorm:"not null"`
	WindSpeedMax    float64   `gorm:"not null"`
	ModifiedAt      time.Time
}

func (historyRow) TableName() string { return "sensor_history" }

// GormStore persists sensors and history in SQLite through gorm.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database file at path and migrates the schema.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an open gorm connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&sensorRow{}, &historyRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) SaveSensor(sensor weather.Sensor) error {
	row := toSensorRow(sensor)
	if err := s.db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", weather.ErrDuplicate, sensor.Name)
		}
		return err
	}
	return nil
}

func (s *GormStore) UpdateSensor(sensor weather.Sensor) error {
	row := toSensorRow(sensor)
	res := s.db.Model(&sensorRow{}).Where("id = ?", sensor.ID).Updates(map[string]any{
		"elevation":   row.Elevation,
		"latitude":    row.Latitude,
		"longitude":   row.Longitude,
		"modified_at": row.ModifiedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sensor %s: %w", sensor.ID, weather.ErrNotFound)
	}
	return nil
}

func (s *GormStore) GetSensor(id string) (weather.Sensor, error) {
	var row sensorRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		return weather.Sensor{}, translateNotFound(err, "sensor "+id)
	}
	return row.toSensor(), nil
}

func (s *GormStore) FindSensorByName(name string) (weather.Sensor, error) {
	var row sensorRow
	if err := s.db.First(&row, "LOWER(name) = LOWER(?)", name).Error; err != nil {
		return weather.Sensor{}, translateNotFound(err, fmt.Sprintf("sensor %q", name))
	}
	return row.toSensor(), nil
}

func (s *GormStore) ListSensors() ([]weather.Sensor, error) {
	var rows []sensorRow
	if err := s.db.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	sensors := make([]weather.Sensor, 0, len(rows))
	for _, row := range rows {
		sensors = append(sensors, row.toSensor())
	}
	return sensors, nil
}

// DeleteSensor removes the sensor and its history in one transaction.
func (s *GormStore) DeleteSensor(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sensor_id = ?", id).Delete(&historyRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&sensorRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("sensor %s: %w", id, weather.ErrNotFound)
		}
		return nil
	})
}

func (s *GormStore) SaveHistory(record weather.HistoryRecord) error {
	var count int64
	if err := s.db.Model(&sensorRow{}).Where("id = ?", record.Sensor.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("sensor %s: %w", record.Sensor.ID, weather.ErrNotFound)
	}

	row := historyRow{
		ID:              record.ID,
		SensorID:        record.Sensor.ID,
		RecordDate:      record.RecordDate.Time,
		RainfallSum:     record.RainfallSum,
		SnowfallSum:     record.SnowfallSum,
		Sunrise:         record.Sunrise.Time,
		Sunset:          record.Sunset.Time,
		TemperatureMean: record.TemperatureMean,
		TemperatureMin:  record.TemperatureMin,
		TemperatureMax:  record.TemperatureMax,
		WindDirection:   record.WindDirection,
		WindSpeedMax:    record.WindSpeedMax,
		ModifiedAt:      record.ModifiedAt,
	}
	return s.db.Omit("Sensor").Create(&row).Error
}

func (s *GormStore) ListHistory(filter weather.HistoryFilter) ([]weather.HistoryRecord, error) {
	q := s.db.Preload("Sensor").Order("record_date DESC")
	if filter.SensorID != "" {
		q = q.Where("sensor_id = ?", filter.SensorID)
	}
	if filter.HasRange() {
		q = q.Where("record_date BETWEEN ? AND ?", filter.StartDate.Time, filter.EndDate.Time)
	}

	var rows []historyRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]weather.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, weather.HistoryRecord{
			ID:              row.ID,
			Sensor:          row.Sensor.toSensor(),
			RecordDate:      weather.NewDate(row.RecordDate),
			RainfallSum:     row.RainfallSum,
			SnowfallSum:     row.SnowfallSum,
			Sunrise:         weather.DateTime{Time: row.Sunrise.UTC()},
			Sunset:          weather.DateTime{Time: row.Sunset.UTC()},
			TemperatureMean: row.TemperatureMean,
			TemperatureMin:  row.TemperatureMin,
			TemperatureMax:  row.TemperatureMax,
			WindDirection:   row.WindDirection,
			WindSpeedMax:    row.WindSpeedMax,
			ModifiedAt:      row.ModifiedAt,
		})
	}
	return records, nil
}

func toSensorRow(s weather.Sensor) sensorRow {
	return sensorRow{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CountryCode: s.CountryCode,
		TimeZone:    s.TimeZone,
		Elevation:   s.Elevation,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		ModifiedAt:  s.ModifiedAt,
	}
}

func (r sensorRow) toSensor() weather.Sensor {
	return weather.Sensor{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CountryCode: r.CountryCode,
		TimeZone:    r.TimeZone,
		Elevation:   r.Elevation,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ModifiedAt:  r.ModifiedAt,
	}
}

func translateNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, weather.ErrNotFound)
	}
	return err
}
