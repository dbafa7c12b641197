// Package search implements the debounced sensor typeahead.
package search

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-sensor-history/internal/session"
	"github.com/i474232898/weather-sensor-history/internal/weather"
)

// Lookup resolves a partial sensor name. A nil result means the server returned no list.
type Lookup interface {
	SearchSensors(ctx context.Context, query string) ([]weather.Sensor, error)
}

// Searcher turns keystrokes into at most one lookup per quiet window and keeps the option
// list in sync with the latest query. Results of superseded queries are dropped.
type Searcher struct {
	lookup   Lookup
	debounce *session.Debouncer
	seq      session.Sequence
	timeout  time.Duration

	mu        sync.Mutex
	query     string
	selected  *weather.Sensor
	options   []weather.Sensor
	onOptions func([]weather.Sensor)
	closed    bool
}

// New creates a Searcher. A non-positive window selects session.DefaultWindow.
func New(lookup Lookup, window time.Duration) *Searcher {
	return &Searcher{
		lookup:   lookup,
		debounce: session.NewDebouncer(window),
		timeout:  15 * time.Second,
		options:  []weather.Sensor{},
	}
}

// OnOptions registers fn to receive every new option list. fn runs outside the lock.
func (s *Searcher) OnOptions(fn func([]weather.Sensor)) {
	s.mu.Lock()
	s.onOptions = fn
	s.mu.Unlock()
}

// Input records the current query text.
func (s *Searcher) Input(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = query
	tok := s.seq.Next()

	if query == "" {
		s.debounce.Stop()
		s.setOptionsLocked(s.fallbackLocked())
		return
	}
	// Scheduled under the lock so the newest token is always the pending one.
	s.debounce.Schedule(func() { s.search(tok, query) })
	s.mu.Unlock()
}

// Select makes sensor the selection and puts it in front of the current options so it stays
// visible. A nil sensor clears the selection.
func (s *Searcher) Select(sensor *weather.Sensor) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if sensor == nil {
		s.selected = nil
	} else {
		picked := *sensor
		s.selected = &picked
		options := make([]weather.Sensor, 0, len(s.options)+1)
		options = append(options, picked)
		options = append(options, s.options...)
		s.options = options
	}

	// The pending lookup belongs to the old selection; re-issue it for the current query.
	tok := s.seq.Next()
	query := s.query
	if query == "" {
		s.debounce.Stop()
		s.setOptionsLocked(s.fallbackLocked())
		return
	}
	s.debounce.Schedule(func() { s.search(tok, query) })
	s.setOptionsLocked(s.options)
}

// Close ends the session. Pending and in-flight lookups are discarded.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.seq.Next()
	s.debounce.Stop()
}

// Options returns a copy of the current option list.
func (s *Searcher) Options() []weather.Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]weather.Sensor{}, s.options...)
}

// Selected returns a copy of the selected sensor, or nil.
func (s *Searcher) Selected() *weather.Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	picked := *s.selected
	return &picked
}

func (s *Searcher) search(tok session.Token, query string) {
	if !s.seq.Current(tok) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	results, err := s.lookup.SearchSensors(ctx, query)
	cancel()

	s.mu.Lock()
	if s.closed || !s.seq.Current(tok) {
		s.mu.Unlock()
		log.Printf("DEBUG: dropping stale sensor search results for %q", query)
		return
	}
	if err != nil {
		log.Printf("ERROR: sensor search for %q failed: %v", query, err)
		results = nil
	}

	if results == nil {
		s.setOptionsLocked(s.fallbackLocked())
		return
	}
	s.setOptionsLocked(results)
}

// fallbackLocked is the option list when there are no search results: the selection alone.
func (s *Searcher) fallbackLocked() []weather.Sensor {
	if s.selected == nil {
		return []weather.Sensor{}
	}
	return []weather.Sensor{*s.selected}
}

// setOptionsLocked stores options, releases the lock and notifies the listener.
func (s *Searcher) setOptionsLocked(options []weather.Sensor) {
	s.options = options
	fn := s.onOptions
	snapshot := append([]weather.Sensor{}, options...)
	s.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}
