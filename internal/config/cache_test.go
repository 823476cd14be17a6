package config

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envMutex sync.Mutex

var cacheEnvVars = []string{
	"CACHE_TTL_MINUTES",
	"CACHE_RETENTION_DAYS",
	"CACHE_MAX_SIZE",
	"CACHE_CLEANUP_PROBABILITY",
	"CACHE_LRU_SIZE",
	"CACHE_ENABLE_LRU",
}

// withCacheEnv clears the cache variables, applies the given overrides, and
// restores the original environment when the test finishes. Tests using it
// must not run in parallel.
func withCacheEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	envMutex.Lock()
	original := make(map[string]string, len(cacheEnvVars))
	for _, k := range cacheEnvVars {
		original[k] = os.Getenv(k)
		require.NoError(t, os.Unsetenv(k))
	}
	for k, v := range vars {
		require.NoError(t, os.Setenv(k, v))
	}
	envMutex.Unlock()

	t.Cleanup(func() {
		envMutex.Lock()
		defer envMutex.Unlock()
		for k, v := range original {
			if v != "" {
				_ = os.Setenv(k, v)
			} else {
				_ = os.Unsetenv(k)
			}
		}
	})
}

func TestGetCacheConfigDefaults(t *testing.T) {
	withCacheEnv(t, nil)

	config := GetCacheConfig()

	assert.Equal(t, defaultTTLMinutes, config.TTLMinutes)
	assert.Equal(t, defaultRetentionDays, config.RetentionDays)
	assert.Equal(t, defaultMaxSize, config.MaxSize)
	assert.Equal(t, defaultCleanupProbability, config.CleanupProbability)
	assert.Equal(t, defaultLRUSize, config.LRUSize)
	assert.True(t, config.EnableLRU)

	assert.Equal(t, time.Duration(defaultTTLMinutes)*time.Minute, config.GetTTL())
}

func TestGetCacheConfigOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *CacheConfig)
	}{
		{
			name: "custom configuration",
			envVars: map[string]string{
				"CACHE_TTL_MINUTES":         "30",
				"CACHE_RETENTION_DAYS":      "14",
				"CACHE_MAX_SIZE":            "5000",
				"CACHE_CLEANUP_PROBABILITY": "0.1",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.Equal(t, 30, c.TTLMinutes)
				assert.Equal(t, 14, c.RetentionDays)
				assert.Equal(t, 5000, c.MaxSize)
				assert.Equal(t, 0.1, c.CleanupProbability)
				assert.Equal(t, 30*time.Minute, c.GetTTL())
			},
		},
		{
			name: "disabled LRU layer",
			envVars: map[string]string{
				"CACHE_ENABLE_LRU": "false",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.False(t, c.EnableLRU)
			},
		},
		{
			name: "invalid numeric values fall back to defaults",
			envVars: map[string]string{
				"CACHE_TTL_MINUTES": "invalid",
				"CACHE_MAX_SIZE":    "not_a_number",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.Equal(t, defaultTTLMinutes, c.TTLMinutes)
				assert.Equal(t, defaultMaxSize, c.MaxSize)
			},
		},
		{
			name: "out of range probability falls back to default",
			envVars: map[string]string{
				"CACHE_CLEANUP_PROBABILITY": "1.5",
			},
			check: func(t *testing.T, c *CacheConfig) {
				assert.Equal(t, defaultCleanupProbability, c.CleanupProbability)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			withCacheEnv(t, tt.envVars)
			tt.check(t, GetCacheConfig())
		})
	}
}
