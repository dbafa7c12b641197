package weather

import (
	"math"
	"sort"
)

// BucketFunc assigns a history record to an aggregation bucket.
type BucketFunc func(HistoryRecord) string

// ByMonth buckets records by their YYYY-MM record month.
func ByMonth(r HistoryRecord) string {
	return r.RecordDate.MonthKey()
}

// BySensorName buckets records by the name of their sensor.
func BySensorName(r HistoryRecord) string {
	return r.Sensor.Name
}

type stat struct {
	sum      float64
	min, max float64
}

func (s *stat) add(v float64, first bool) {
	s.sum += v
	if first || v < s.min {
		s.min = v
	}
	if first || v > s.max {
		s.max = v
	}
}

type bucket struct {
	n         int
	rainfall  stat
	snowfall  stat
	tempMean  stat
	tempMin   stat
	tempMax   stat
	windDir   stat
	windSpeed stat
}

// AggregateHistory groups records into buckets and computes min/max/mean per metric.
// Rainfall, snowfall and wind speed use the daily sum/max values; temperature mean comes from
// the daily means, its min from the daily minimums and its max from the daily maximums.
// Values are rounded to two decimals, wind direction to whole degrees.
func AggregateHistory(start, end Date, records []HistoryRecord, key BucketFunc) AverageResult {
	result := AverageResult{
		StartDate: start,
		EndDate:   end,
		Data:      make(map[string][]AverageData),
	}

	buckets := make(map[string]*bucket)
	var keys []string
	for _, r := range records {
		k := key(r)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			keys = append(keys, k)
		}
		first := b.n == 0
		b.n++
		b.rainfall.add(r.RainfallSum, first)
		b.snowfall.add(r.SnowfallSum, first)
		b.tempMean.add(r.TemperatureMean, first)
		b.tempMin.add(r.TemperatureMin, first)
		b.tempMax.add(r.TemperatureMax, first)
		b.windDir.add(float64(r.WindDirection), first)
		b.windSpeed.add(r.WindSpeedMax, first)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b := buckets[k]
		n := float64(b.n)
		result.Add(k, MetricRainfall, round2(b.rainfall.sum/n), round2(b.rainfall.min), round2(b.rainfall.max))
		result.Add(k, MetricSnowfall, round2(b.snowfall.sum/n), round2(b.snowfall.min), round2(b.snowfall.max))
		result.Add(k, MetricTemperature, round2(b.tempMean.sum/n), round2(b.tempMin.min), round2(b.tempMax.max))
		result.Add(k, MetricWindDirection, math.Round(b.windDir.sum/n), b.windDir.min, b.windDir.max)
		result.Add(k, MetricWindSpeed, round2(b.windSpeed.sum/n), round2(b.windSpeed.min), round2(b.windSpeed.max))
	}

	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
