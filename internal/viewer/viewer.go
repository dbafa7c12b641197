// Package viewer loads the dashboard: the min/max/mean aggregation and the raw record grid
// for a sensor and date range.
package viewer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-sensor-history/internal/session"
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// DefaultRangeDays is the length of the date range used when the filter leaves it unset.
const DefaultRangeDays = 180

// ErrStale is returned by Refresh when a newer Refresh superseded it.
var ErrStale = errors.New("superseded by a newer filter")

// Source fetches the dashboard data.
type Source interface {
	Averages(ctx context.Context, filter weather.HistoryFilter) (weather.AverageResult, error)
	ListHistory(ctx context.Context, filter weather.HistoryFilter) ([]weather.HistoryRecord, error)
}

// Filter selects the dashboard data. An empty SensorID means all sensors.
type Filter struct {
	SensorID  string
	StartDate weather.Date
	EndDate   weather.Date
}

// WithDefaults fills an unset range with [today-180d, today].
func (f Filter) WithDefaults(today weather.Date) Filter {
	if f.EndDate.IsZero() {
		f.EndDate = today
	}
	if f.StartDate.IsZero() {
		f.StartDate = today.AddDays(-DefaultRangeDays)
	}
	return f
}

func (f Filter) query() weather.HistoryFilter {
	return weather.HistoryFilter{
		SensorID:  f.SensorID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
	}
}

// View is what the dashboard renders. Ready is set once both requests of the current filter
// have resolved.
type View struct {
	Filter   Filter
	Averages weather.AverageResult
	Records  []weather.HistoryRecord
	Ready    bool
}

// Viewer keeps the view of the latest filter. Results of earlier filters are discarded
// when they arrive.
type Viewer struct {
	src Source
	seq session.Sequence
	now func() time.Time

	mu          sync.Mutex
	view        View
	hasAverages bool
	hasRecords  bool
}

func New(src Source) *Viewer {
	return &Viewer{
		src: src,
		now: time.Now,
	}
}

// View returns the current view.
func (v *Viewer) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Refresh applies filter and loads both the aggregation and the records for it.
func (v *Viewer) Refresh(ctx context.Context, filter Filter) (View, error) {
	filter = filter.WithDefaults(weather.NewDate(v.now()))
	query := filter.query()

	v.mu.Lock()
	tok := v.seq.Next()
	v.view = View{Filter: filter}
	v.hasAverages = false
	v.hasRecords = false
	v.mu.Unlock()

	// The requests are independent: a failed one does not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		result, err := v.src.Averages(ctx, query)
		if err != nil {
			return err
		}
		v.apply(tok, func(view *View) {
			view.Averages = result
			v.hasAverages = true
		})
		return nil
	})
	g.Go(func() error {
		records, err := v.src.ListHistory(ctx, query)
		if err != nil {
			return err
		}
		v.apply(tok, func(view *View) {
			view.Records = records
			v.hasRecords = true
		})
		return nil
	})
	err := g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(tok) {
		log.Printf("DEBUG: discarding dashboard results for %s..%s", filter.StartDate, filter.EndDate)
		return View{}, ErrStale
	}
	if err != nil {
		log.Printf("ERROR: failed to load dashboard: %v", err)
		return v.snapshotLocked(), err
	}
	return v.snapshotLocked(), nil
}

func (v *Viewer) apply(tok session.Token, fn func(*View)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.Current(tok) {
		return
	}
	fn(&v.view)
	v.view.Ready = v.hasAverages && v.hasRecords
}

func (v *Viewer) snapshotLocked() View {
	view := v.view
	view.Records = append([]weather.HistoryRecord(nil), v.view.Records...)
	return view
}
