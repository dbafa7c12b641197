package weather_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-sensor-history/internal/store"
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

type fakeLookup struct {
	locations map[string][]weather.Location
	history   []weather.HistoryRequest
	err       error
	imports   int
}

func (f *fakeLookup) Name() string { return "fake" }

func (f *fakeLookup) Locations(_ context.Context, name string) ([]weather.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.locations[name], nil
}

func (f *fakeLookup) History(_ context.Context, _ weather.SensorRequest) ([]weather.HistoryRequest, error) {
	f.imports++
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func ptr(v float64) *float64 { return &v }

func date(t *testing.T, s string) weather.Date {
	t.Helper()
	d, err := weather.ParseDate(s)
	require.NoError(t, err)
	return d
}

func historyOn(t *testing.T, day string, rain float64) weather.HistoryRequest {
	t.Helper()
	d := date(t, day)
	sunrise, err := weather.Combine(d, "07:00")
	require.NoError(t, err)
	sunset, err := weather.Combine(d, "18:00")
	require.NoError(t, err)
	return weather.HistoryRequest{RecordDate: d, Sunrise: sunrise, Sunset: sunset, RainfallSum: ptr(rain)}
}

var corkRequest = weather.SensorRequest{
	Name:        "Cork",
	Description: "Munster, IE",
	CountryCode: "IE",
	TimeZone:    "Europe/Dublin",
	Latitude:    51.9,
	Longitude:   -8.47,
}

func TestCreateSensorRejectsDuplicateNames(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil)

	sensor, err := svc.CreateSensor(context.Background(), corkRequest)
	require.NoError(t, err)
	assert.NotEmpty(t, sensor.ID)

	dup := corkRequest
	dup.Name = "CORK"
	_, err = svc.CreateSensor(context.Background(), dup)
	assert.ErrorIs(t, err, weather.ErrDuplicate)
}

func TestCreateSensorImportsHistory(t *testing.T) {
	lookup := &fakeLookup{history: []weather.HistoryRequest{
		historyOn(t, "2024-01-01", 1),
		historyOn(t, "2024-01-02", 2),
	}}
	svc := weather.NewService(store.NewMemoryStore(), lookup)

	req := corkRequest
	req.LoadSensorData = true
	sensor, err := svc.CreateSensor(context.Background(), req)
	require.NoError(t, err)

	records, err := svc.ListHistory(weather.HistoryFilter{SensorID: sensor.ID})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-02", records[0].RecordDate.String(), "newest first")
}

func TestCreateSensorSurvivesFailedImport(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("archive down")}
	svc := weather.NewService(store.NewMemoryStore(), lookup)

	req := corkRequest
	req.LoadSensorData = true
	sensor, err := svc.CreateSensor(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.GetSensor(sensor.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, lookup.imports)
}

func TestSearchSensors(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil)
	for _, name := range []string{"Galway", "Cork", "Corofin"} {
		req := corkRequest
		req.Name = name
		_, err := svc.CreateSensor(context.Background(), req)
		require.NoError(t, err)
	}

	found, err := svc.SearchSensors("co")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Cork", found[0].Name)
	assert.Equal(t, "Corofin", found[1].Name)

	none, err := svc.SearchSensors("  ")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCreateHistoryDefaultsAndRounding(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil)
	sensor, err := svc.CreateSensor(context.Background(), corkRequest)
	require.NoError(t, err)

	req := historyOn(t, "2024-03-01", 0)
	req.RainfallSum = nil
	req.WindDirection = ptr(269.6)

	record, err := svc.CreateHistory(sensor.ID, req)
	require.NoError(t, err)
	assert.Zero(t, record.RainfallSum)
	assert.Equal(t, 270, record.WindDirection)
	assert.Equal(t, "Cork", record.Sensor.Name)

	_, err = svc.CreateHistory("missing", req)
	assert.ErrorIs(t, err, weather.ErrNotFound)
}

func TestAveragesFiltersByRange(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil)
	sensor, err := svc.CreateSensor(context.Background(), corkRequest)
	require.NoError(t, err)

	for _, h := range []weather.HistoryRequest{
		historyOn(t, "2024-01-10", 2),
		historyOn(t, "2024-01-20", 4),
		historyOn(t, "2024-03-01", 50),
	} {
		_, err := svc.CreateHistory(sensor.ID, h)
		require.NoError(t, err)
	}

	result, err := svc.Averages(weather.HistoryFilter{
		SensorID:  sensor.ID,
		StartDate: date(t, "2024-01-01"),
		EndDate:   date(t, "2024-02-29"),
	})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.InDelta(t, 3.0, result.Data["2024-01"][0].MeanValue, 1e-9)

	_, err = svc.Averages(weather.HistoryFilter{SensorID: "missing"})
	assert.ErrorIs(t, err, weather.ErrNotFound)
}

func TestUpdateAndDeleteSensor(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil)
	sensor, err := svc.CreateSensor(context.Background(), corkRequest)
	require.NoError(t, err)

	update := weather.SensorRequest{Name: "ignored", Elevation: 30, Latitude: 52, Longitude: -8}
	updated, err := svc.UpdateSensor(sensor.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Cork", updated.Name)
	assert.InDelta(t, 30.0, updated.Elevation, 1e-9)

	_, err = svc.CreateHistory(sensor.ID, historyOn(t, "2024-01-01", 1))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSensor(sensor.ID))
	records, err := svc.ListHistory(weather.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLookupLocationsWithoutProvider(t *testing.T) {
	svc := weather.NewService(store.NewMemoryStore(), nil)
	_, err := svc.LookupLocations(context.Background(), "Cork")
	assert.ErrorIs(t, err, weather.ErrNoProvider)
}

func TestSeedSensors(t *testing.T) {
	lookup := &fakeLookup{locations: map[string][]weather.Location{
		"Cork":   {{Name: "Cork", Region: "Munster", CountryCode: "IE", TimeZone: "Europe/Dublin"}},
		"Dublin": {{Name: "Dublin", Region: "Leinster", CountryCode: "IE", TimeZone: "Europe/Dublin"}},
	}}
	svc := weather.NewService(store.NewMemoryStore(), lookup)

	require.NoError(t, svc.SeedSensors(context.Background(), []string{"Cork", "Dublin", "Atlantis", ""}))

	found, err := svc.SearchSensors("d")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Leinster, IE", found[0].Description)
	assert.Equal(t, 2, lookup.imports)

	// Existing sensors are skipped on the next run.
	require.NoError(t, svc.SeedSensors(context.Background(), []string{"Cork", "Dublin"}))
	assert.Equal(t, 2, lookup.imports)
}
