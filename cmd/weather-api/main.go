package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-sensor-history/internal/api/http"
	"github.com/i474232898/weather-sensor-history/internal/config"
	"github.com/i474232898/weather-sensor-history/internal/scheduler"
	"github.com/i474232898/weather-sensor-history/internal/store"
	"github.com/i474232898/weather-sensor-history/internal/weather"
	"github.com/i474232898/weather-sensor-history/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var st weather.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		st = store.NewMemoryStore()
	default:
		gormStore, err := store.OpenSQLite(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer gormStore.Close()
		st = gormStore
	}

	// Geocoding and history import with resilience (backoff + circuit breaker).
	lookup := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoConfig{
		GeocodingURL: cfg.LocationAPIURL,
		ArchiveURL:   cfg.WeatherAPIURL,
		LookbackDays: cfg.LookbackDays,
	})

	service := weather.NewService(st, lookup)

	// Registers the seed sensors once the provider is reachable.
	sched := scheduler.New(cfg.SeedSensors, cfg.SeedInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-sensor-history",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Minute,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-sensor-history",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
