package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// TTL for single entries; an older entry is a miss and is deleted on read.
	TTLMinutes int

	// Entries written before now minus RetentionDays (calendar-day cutoff)
	// are swept regardless of TTL.
	RetentionDays int

	// MaxSize caps total entry count; the size sweep removes oldest-first
	// down to the cap.
	MaxSize int

	// CleanupProbability is the per-query chance of running the composite
	// cleanup sweep.
	CleanupProbability float64

	// In-process LRU hot layer settings
	LRUSize   int
	EnableLRU bool
}

const (
	// Default values
	defaultTTLMinutes         = 15
	defaultRetentionDays      = 7
	defaultMaxSize            = 1000
	defaultCleanupProbability = 0.05
	defaultLRUSize            = 256
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		TTLMinutes:         getEnvInt("CACHE_TTL_MINUTES", defaultTTLMinutes),
		RetentionDays:      getEnvInt("CACHE_RETENTION_DAYS", defaultRetentionDays),
		MaxSize:            getEnvInt("CACHE_MAX_SIZE", defaultMaxSize),
		CleanupProbability: getEnvFloat("CACHE_CLEANUP_PROBABILITY", defaultCleanupProbability),
		LRUSize:            getEnvInt("CACHE_LRU_SIZE", defaultLRUSize),
		EnableLRU:          getEnvBool("CACHE_ENABLE_LRU", true),
	}

	if config.CleanupProbability < 0 || config.CleanupProbability > 1 {
		log.Warn().Float64("probability", config.CleanupProbability).
			Msg("Cleanup probability out of range, using default")
		config.CleanupProbability = defaultCleanupProbability
	}

	log.Debug().
		Int("TTLMinutes", config.TTLMinutes).
		Int("RetentionDays", config.RetentionDays).
		Int("MaxSize", config.MaxSize).
		Float64("CleanupProbability", config.CleanupProbability).
		Int("LRUSize", config.LRUSize).
		Bool("EnableLRU", config.EnableLRU).
		Msg("Cache configuration loaded")

	return config
}

// GetTTL returns the entry TTL as a duration.
func (c *CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Helper functions to get environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
