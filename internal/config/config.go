package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type GeocoderProvider string

const (
	GeocoderNominatim GeocoderProvider = "nominatim"
	GeocoderGoogle    GeocoderProvider = "google"
)

type CacheBackend string

const (
	BackendMemory CacheBackend = "memory"
	BackendMySQL  CacheBackend = "mysql"
	BackendRedis  CacheBackend = "redis"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	Port        string

	// Outbound provider settings. WeatherAPIKey is the global key; a
	// location record may carry its own override.
	WeatherAPIKey  string `validate:"required"`
	WeatherBaseURL string `validate:"required,url"`
	HTTPTimeout    time.Duration

	Geocoder             GeocoderProvider `validate:"oneof=nominatim google"`
	NominatimBaseURL     string
	GoogleGeocoderAPIKey string

	Backend  CacheBackend `validate:"oneof=memory mysql redis"`
	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CleanupScheduleMinutes > 0 additionally runs the composite cleanup
	// on a fixed schedule; 0 leaves only the probabilistic trigger.
	CleanupScheduleMinutes int `validate:"min=0"`
}

// Load reads configuration from the environment (and .env if present),
// applying defaults and validating ranges.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	level, err := zerolog.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	cfg := &Config{
		Environment:            getEnvOrDefault("ENV", "production"),
		LogLevel:               level,
		Port:                   getEnvOrDefault("PORT", "8080"),
		WeatherAPIKey:          os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL:         getEnvOrDefault("WEATHER_BASE_URL", "https://api.openweathermap.org"),
		HTTPTimeout:            getDurationEnvOrDefault("HTTP_TIMEOUT", 5*time.Second),
		Geocoder:               GeocoderProvider(getEnvOrDefault("GEOCODER_PROVIDER", string(GeocoderNominatim))),
		NominatimBaseURL:       getEnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		GoogleGeocoderAPIKey:   os.Getenv("GOOGLE_GEOCODER_API_KEY"),
		Backend:                CacheBackend(getEnvOrDefault("CACHE_BACKEND", string(BackendMemory))),
		MySQLDSN:               os.Getenv("MYSQL_DSN"),
		RedisAddr:              getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		CleanupScheduleMinutes: getEnvInt("CLEANUP_SCHEDULE_MINUTES", 0),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.Backend == BackendMySQL && cfg.MySQLDSN == "" {
		return nil, fmt.Errorf("CACHE_BACKEND=mysql requires MYSQL_DSN")
	}
	if cfg.Geocoder == GeocoderGoogle && cfg.GoogleGeocoderAPIKey == "" {
		return nil, fmt.Errorf("GEOCODER_PROVIDER=google requires GOOGLE_GEOCODER_API_KEY")
	}

	return cfg, nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}
