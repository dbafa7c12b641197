package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestAggregateHistoryByMonth(t *testing.T) {
	cork := Sensor{ID: "s-1", Name: "Cork"}
	records := []HistoryRecord{
		{Sensor: cork, RecordDate: mustDate(t, "2024-02-10"), RainfallSum: 4, TemperatureMean: 5, TemperatureMin: 1, TemperatureMax: 9, WindDirection: 10, WindSpeedMax: 20},
		{Sensor: cork, RecordDate: mustDate(t, "2024-01-03"), RainfallSum: 1, TemperatureMean: 2, TemperatureMin: -4, TemperatureMax: 6, WindDirection: 90, WindSpeedMax: 10},
		{Sensor: cork, RecordDate: mustDate(t, "2024-01-04"), RainfallSum: 2.333, TemperatureMean: 3, TemperatureMin: -1, TemperatureMax: 8, WindDirection: 181, WindSpeedMax: 15},
	}

	result := AggregateHistory(mustDate(t, "2024-01-01"), mustDate(t, "2024-02-29"), records, ByMonth)

	assert.Equal(t, "2024-01-01", result.StartDate.String())
	require.Len(t, result.Data, 2)

	jan := result.Data["2024-01"]
	require.Len(t, jan, len(Metrics))
	for i, m := range Metrics {
		assert.Equal(t, m, jan[i].Metric)
	}

	assert.Equal(t, AverageData{Metric: MetricRainfall, MeanValue: 1.67, MinValue: 1, MaxValue: 2.33}, jan[0])
	assert.Equal(t, AverageData{Metric: MetricTemperature, MeanValue: 2.5, MinValue: -4, MaxValue: 8}, jan[2])
	assert.Equal(t, AverageData{Metric: MetricWindDirection, MeanValue: 136, MinValue: 90, MaxValue: 181}, jan[3])

	feb := result.Data["2024-02"]
	assert.Equal(t, AverageData{Metric: MetricWindSpeed, MeanValue: 20, MinValue: 20, MaxValue: 20}, feb[4])
}

func TestAggregateHistoryBySensorName(t *testing.T) {
	records := []HistoryRecord{
		{Sensor: Sensor{Name: "Dublin"}, RecordDate: mustDate(t, "2024-01-01"), SnowfallSum: 3},
		{Sensor: Sensor{Name: "Cork"}, RecordDate: mustDate(t, "2024-01-01"), SnowfallSum: 1},
		{Sensor: Sensor{Name: "Cork"}, RecordDate: mustDate(t, "2024-01-02"), SnowfallSum: 2},
	}

	result := AggregateHistory(Date{}, Date{}, records, BySensorName)
	require.Contains(t, result.Data, "Cork")
	require.Contains(t, result.Data, "Dublin")
	assert.InDelta(t, 1.5, result.Data["Cork"][1].MeanValue, 1e-9)
	assert.InDelta(t, 3.0, result.Data["Dublin"][1].MaxValue, 1e-9)
}

func TestAggregateHistoryEmpty(t *testing.T) {
	result := AggregateHistory(Date{}, Date{}, nil, ByMonth)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}
