package cache

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mizukake/tenki/internal/config"
	"github.com/mizukake/tenki/internal/metrics"
	"github.com/mizukake/tenki/internal/models"
	"github.com/rs/zerolog/log"
)

// lruEntry wraps a decoded snapshot with its absolute expiry.
type lruEntry struct {
	Snapshot  *models.WeatherSnapshot
	ExpiresAt time.Time
}

// Service layers an optional in-process LRU over the persistent Store and
// owns TTL validation: a read of an expired or undecodable entry deletes
// it and reports a miss. The LRU expiry mirrors the persistent TTL, so
// both layers agree on entry lifetime.
type Service struct {
	store   Store
	lru     *lru.Cache[string, *lruEntry]
	ttl     time.Duration
	cleanup *CleanupPolicy

	now func() time.Time
}

func NewService(store Store, cacheConfig *config.CacheConfig) (*Service, error) {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}

	var hotLayer *lru.Cache[string, *lruEntry]
	if cacheConfig.EnableLRU {
		var err error
		hotLayer, err = lru.New[string, *lruEntry](cacheConfig.LRUSize)
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}
	}

	return &Service{
		store:   store,
		lru:     hotLayer,
		ttl:     cacheConfig.GetTTL(),
		cleanup: NewCleanupPolicy(store, cacheConfig),
		now:     time.Now,
	}, nil
}

// GetSnapshot returns the cached snapshot for the coordinates and date, or
// (nil, nil) on a miss. Expired and corrupt entries are deleted as part of
// the read.
func (s *Service) GetSnapshot(ctx context.Context, lat, lon float64, date string) (*models.WeatherSnapshot, error) {
	key := Key(lat, lon, date)

	if s.lru != nil {
		if entry, ok := s.lru.Get(key); ok {
			if s.now().Before(entry.ExpiresAt) {
				metrics.RecordCacheLookup("hit")
				return entry.Snapshot, nil
			}
			s.lru.Remove(key)
		}
	}

	entry, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if entry == nil {
		metrics.RecordCacheLookup("miss")
		return nil, nil
	}

	if s.now().Sub(entry.CreatedAt) > s.ttl {
		log.Debug().Str("key", key).Time("created_at", entry.CreatedAt).Msg("Cache entry expired")
		if err := s.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("deleting expired cache entry: %w", err)
		}
		metrics.RecordCacheLookup("expired")
		return nil, nil
	}

	var snapshot models.WeatherSnapshot
	if err := json.Unmarshal(entry.Payload, &snapshot); err != nil {
		// A payload that no longer deserializes is treated as a miss and
		// removed so it cannot poison later reads.
		log.Warn().Err(err).Str("key", key).Msg("Corrupt cache payload, deleting")
		if err := s.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("deleting corrupt cache entry: %w", err)
		}
		metrics.RecordCacheLookup("corrupt")
		return nil, nil
	}

	if s.lru != nil {
		s.lru.Add(key, &lruEntry{
			Snapshot:  &snapshot,
			ExpiresAt: entry.CreatedAt.Add(s.ttl),
		})
	}

	metrics.RecordCacheLookup("hit")
	return &snapshot, nil
}

// SaveSnapshot upserts the snapshot for the coordinates and date. The
// store's replace gives the entry a fresh creation timestamp.
func (s *Service) SaveSnapshot(ctx context.Context, lat, lon float64, date string, snapshot *models.WeatherSnapshot) error {
	key := Key(lat, lon, date)

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := s.store.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	if s.lru != nil {
		s.lru.Add(key, &lruEntry{
			Snapshot:  snapshot,
			ExpiresAt: s.now().Add(s.ttl),
		})
	}

	log.Debug().Str("key", key).Msg("Saved snapshot to cache")
	return nil
}

// Cleanup runs the composite sweep unconditionally.
func (s *Service) Cleanup(ctx context.Context) CleanupResult {
	result := s.cleanup.Cleanup(ctx)
	s.purgeAfter(result)
	return result
}

// MaybeCleanup runs the composite sweep with the configured per-query
// probability, reporting whether it ran.
func (s *Service) MaybeCleanup(ctx context.Context) (CleanupResult, bool) {
	result, ran := s.cleanup.MaybeCleanup(ctx)
	if ran {
		s.purgeAfter(result)
	}
	return result, ran
}

// purgeAfter drops the hot layer when a sweep removed rows, so entries the
// size cap evicted cannot keep serving from memory.
func (s *Service) purgeAfter(result CleanupResult) {
	if s.lru != nil && result.Total > 0 {
		s.lru.Purge()
	}
}
