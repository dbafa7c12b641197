package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Seeder registers the named sensors that do not exist yet.
type Seeder interface {
	SeedSensors(ctx context.Context, names []string) error
}

// Scheduler periodically seeds the configured sensors.
type Scheduler struct {
	scheduler *gocron.Scheduler
	seeder    Seeder
	names     []string
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(names []string, interval time.Duration, seeder Seeder) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		seeder:    seeder,
		names:     names,
		interval:  interval,
		timeout:   5 * time.Minute,
	}
}

// Start runs the seeding job immediately and then on every interval.
func (s *Scheduler) Start() error {
	if len(s.names) == 0 {
		log.Println("scheduler: no seed sensors configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: running sensor seed job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.seeder.SeedSensors(ctx, s.names); err != nil {
		log.Printf("scheduler: seeding failed: %v", err)
		return
	}
	log.Println("scheduler: completed sensor seed job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
