package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeeder struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeSeeder) SeedSensors(_ context.Context, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, names)
	return nil
}

func (f *fakeSeeder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSchedulerSeedsImmediately(t *testing.T) {
	seeder := &fakeSeeder{}
	s := New([]string{"Cork", "Dublin"}, time.Hour, seeder)
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return seeder.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	seeder.mu.Lock()
	assert.Equal(t, []string{"Cork", "Dublin"}, seeder.calls[0])
	seeder.mu.Unlock()
}

func TestSchedulerWithoutNames(t *testing.T) {
	seeder := &fakeSeeder{}
	s := New(nil, time.Hour, seeder)
	require.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, seeder.count())
}
