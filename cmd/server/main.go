package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mizukake/tenki/internal/api"
	"github.com/mizukake/tenki/internal/cache"
	"github.com/mizukake/tenki/internal/config"
	"github.com/mizukake/tenki/internal/database"
	"github.com/mizukake/tenki/internal/geocode"
	"github.com/mizukake/tenki/internal/location"
	"github.com/mizukake/tenki/internal/scheduler"
	"github.com/mizukake/tenki/internal/weather"
	"github.com/mizukake/tenki/pkg/http/client"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.InitializeLogging()

	cacheConfig := config.GetCacheConfig()

	store, locations, err := buildStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	cacheService, err := cache.NewService(store, cacheConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache service")
	}

	weatherClient := weather.NewOpenWeatherClient(client.New(client.Options{
		BaseURL: cfg.WeatherBaseURL,
		Timeout: cfg.HTTPTimeout,
	}))

	var geocoder geocode.Resolver
	if cfg.Geocoder == config.GeocoderGoogle {
		geocoder = geocode.NewGoogleResolver(cfg.GoogleGeocoderAPIKey)
	} else {
		geocoder = geocode.NewNominatimResolver(client.New(client.Options{
			BaseURL:   cfg.NominatimBaseURL,
			Timeout:   cfg.HTTPTimeout,
			UserAgent: "tenki-weather-engine",
		}))
	}

	service := weather.NewService(weatherClient, cacheService, geocoder, locations, cfg.WeatherAPIKey)

	// Optional periodic cleanup alongside the probabilistic trigger.
	if cfg.CleanupScheduleMinutes > 0 {
		sched := scheduler.New(cacheService, time.Duration(cfg.CleanupScheduleMinutes)*time.Minute)
		if err := sched.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start cleanup scheduler")
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "tenki",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "tenki",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	os.Exit(0)
}

// buildStores selects the cache and location backends from configuration.
func buildStores(cfg *config.Config) (cache.Store, location.Store, error) {
	switch cfg.Backend {
	case config.BackendMySQL:
		conn, err := database.Open(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		cacheStore, err := cache.NewSQLStore(conn)
		if err != nil {
			return nil, nil, err
		}
		locationStore, err := location.NewSQLStore(conn)
		if err != nil {
			return nil, nil, err
		}
		return cacheStore, locationStore, nil

	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cacheStore, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		// Redis holds only cache rows; locations stay in MySQL when
		// configured, else in memory.
		if cfg.MySQLDSN != "" {
			conn, err := database.Open(cfg.MySQLDSN)
			if err != nil {
				return nil, nil, err
			}
			locationStore, err := location.NewSQLStore(conn)
			if err != nil {
				return nil, nil, err
			}
			return cacheStore, locationStore, nil
		}
		return cacheStore, location.NewMemoryStore(), nil

	default:
		return cache.NewMemoryStore(), location.NewMemoryStore(), nil
	}
}
