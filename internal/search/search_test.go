package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-sensor-history/internal/weather"
)

const window = 40 * time.Millisecond

type fakeLookup struct {
	mu      sync.Mutex
	queries []string
	results map[string][]weather.Sensor
	err     error
	release map[string]chan struct{}
}

func (f *fakeLookup) SearchSensors(_ context.Context, query string) ([]weather.Sensor, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	wait := f.release[query]
	f.mu.Unlock()

	if wait != nil {
		<-wait
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeLookup) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.queries...)
}

var (
	austin   = weather.Sensor{ID: "s-1", Name: "Austin", Description: "Texas, US"}
	auckland = weather.Sensor{ID: "s-2", Name: "Auckland", Description: "Auckland, NZ"}
)

func TestKeystrokesWithinWindowIssueOneCall(t *testing.T) {
	lookup := &fakeLookup{results: map[string][]weather.Sensor{"Aus": {austin}}}
	s := New(lookup, window)
	defer s.Close()

	s.Input("A")
	s.Input("Au")
	s.Input("Aus")

	require.Eventually(t, func() bool { return len(s.Options()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * window)
	assert.Equal(t, []string{"Aus"}, lookup.calls())
	assert.Equal(t, "Austin", s.Options()[0].Name)
}

func TestKeystrokesAcrossWindowsIssueTwoCalls(t *testing.T) {
	lookup := &fakeLookup{results: map[string][]weather.Sensor{
		"A":  {austin, auckland},
		"Au": {austin, auckland},
	}}
	s := New(lookup, window)
	defer s.Close()

	s.Input("A")
	require.Eventually(t, func() bool { return len(lookup.calls()) == 1 }, time.Second, 5*time.Millisecond)
	s.Input("Au")
	require.Eventually(t, func() bool { return len(lookup.calls()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"A", "Au"}, lookup.calls())
}

func TestEmptyQueryCollapsesToSelection(t *testing.T) {
	lookup := &fakeLookup{}
	s := New(lookup, window)
	defer s.Close()

	s.Input("")
	assert.Empty(t, s.Options())

	s.Select(&austin)
	s.Input("")
	assert.Equal(t, []weather.Sensor{austin}, s.Options())
	assert.Empty(t, lookup.calls())
}

func TestSelectKeepsSelectionVisible(t *testing.T) {
	lookup := &fakeLookup{results: map[string][]weather.Sensor{"Au": {auckland}}}
	s := New(lookup, window)
	defer s.Close()

	var mu sync.Mutex
	var notified [][]weather.Sensor
	s.OnOptions(func(options []weather.Sensor) {
		mu.Lock()
		notified = append(notified, options)
		mu.Unlock()
	})

	s.Input("Au")
	require.Eventually(t, func() bool { return len(s.Options()) == 1 }, time.Second, 5*time.Millisecond)

	s.Select(&austin)
	assert.Equal(t, []weather.Sensor{austin, auckland}, s.Options())
	require.NotNil(t, s.Selected())
	assert.Equal(t, "s-1", s.Selected().ID)

	mu.Lock()
	assert.NotEmpty(t, notified)
	mu.Unlock()

	s.Select(nil)
	assert.Nil(t, s.Selected())
}

func TestSupersededResultIsDropped(t *testing.T) {
	slow := make(chan struct{})
	lookup := &fakeLookup{
		results: map[string][]weather.Sensor{
			"Au":  {austin, auckland},
			"Auc": {auckland},
		},
		release: map[string]chan struct{}{"Au": slow},
	}
	s := New(lookup, window)
	defer s.Close()

	s.Input("Au")
	require.Eventually(t, func() bool { return len(lookup.calls()) == 1 }, time.Second, 5*time.Millisecond)

	s.Input("Auc")
	require.Eventually(t, func() bool { return len(s.Options()) == 1 }, time.Second, 5*time.Millisecond)

	// The older query resolves last and must not overwrite the newer result.
	close(slow)
	time.Sleep(2 * window)
	assert.Equal(t, []weather.Sensor{auckland}, s.Options())
}

func TestFailedSearchFallsBackToSelection(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("boom")}
	s := New(lookup, window)
	defer s.Close()

	s.Select(&austin)
	s.Input("zzz")
	require.Eventually(t, func() bool { return len(lookup.calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(window)
	assert.Equal(t, []weather.Sensor{austin}, s.Options())
}

func TestCloseDiscardsPendingSearch(t *testing.T) {
	lookup := &fakeLookup{results: map[string][]weather.Sensor{"Au": {austin}}}
	s := New(lookup, window)

	s.Input("Au")
	s.Close()
	time.Sleep(3 * window)

	assert.Empty(t, lookup.calls())
	assert.Empty(t, s.Options())
}

func TestConcurrentInputSearchesLatestQuery(t *testing.T) {
	lookup := &fakeLookup{}
	s := New(lookup, window)
	defer s.Close()

	var wg sync.WaitGroup
	for _, q := range []string{"C", "Co", "Cor", "Cork", "Cob", "Cobh", "Cl", "Cla", "Clare", "Ca"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Input(q)
		}()
	}
	wg.Wait()

	s.mu.Lock()
	latest := s.query
	s.mu.Unlock()

	require.Eventually(t, func() bool { return len(lookup.calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * window)
	assert.Equal(t, []string{latest}, lookup.calls())
}
