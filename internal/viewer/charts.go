package viewer

import (
	"sort"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// Point is one bucket of a metric chart.
type Point struct {
	Key  string
	Min  float64
	Max  float64
	Mean float64
}

// Dataset is the min/max/mean series of one metric.
type Dataset struct {
	Metric weather.Metric
	Points []Point
}

// Charts projects the aggregation into one dataset per tracked metric, buckets in key
// order. A bucket without an entry for a metric is left out of that metric's dataset.
func Charts(result weather.AverageResult) []Dataset {
	keys := make([]string, 0, len(result.Data))
	for k := range result.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	datasets := make([]Dataset, 0, len(weather.Metrics))
	for _, metric := range weather.Metrics {
		ds := Dataset{Metric: metric, Points: []Point{}}
		for _, k := range keys {
			for _, entry := range result.Data[k] {
				if entry.Metric != metric {
					continue
				}
				ds.Points = append(ds.Points, Point{
					Key:  k,
					Min:  entry.MinValue,
					Max:  entry.MaxValue,
					Mean: entry.MeanValue,
				})
				break
			}
		}
		datasets = append(datasets, ds)
	}
	return datasets
}
