package cache

import (
	"context"
	"math/rand"
	"time"

	"github.com/mizukake/tenki/internal/config"
	"github.com/mizukake/tenki/internal/metrics"
	"github.com/rs/zerolog/log"
)

// CleanupResult is the per-policy breakdown of one composite sweep.
type CleanupResult struct {
	Expired   int `json:"expired"`
	OldDate   int `json:"old_date"`
	SizeLimit int `json:"size_limit"`
	Total     int `json:"total"`
}

// CleanupPolicy bundles the three eviction sweeps: TTL expiry, stale-date
// pruning, and the size cap. Sweeps are independent; Cleanup composes them
// in a fixed order. A sweep that removes nothing is a normal outcome, and
// a failing sweep is logged and skipped rather than aborting the rest.
type CleanupPolicy struct {
	store         Store
	ttl           time.Duration
	retentionDays int
	maxSize       int
	probability   float64

	now       func() time.Time
	randFloat func() float64
}

func NewCleanupPolicy(store Store, cacheConfig *config.CacheConfig) *CleanupPolicy {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	return &CleanupPolicy{
		store:         store,
		ttl:           cacheConfig.GetTTL(),
		retentionDays: cacheConfig.RetentionDays,
		maxSize:       cacheConfig.MaxSize,
		probability:   cacheConfig.CleanupProbability,
		now:           time.Now,
		randFloat:     rand.Float64,
	}
}

// ClearExpired removes every entry older than the TTL.
func (p *CleanupPolicy) ClearExpired(ctx context.Context) (int, error) {
	return p.store.DeleteCreatedBefore(ctx, p.now().Add(-p.ttl))
}

// ClearOldDates removes entries written before the retention window. The
// cutoff is calendar-day granular: today's midnight minus the retention
// days, so all entries from a pruned day go together.
func (p *CleanupPolicy) ClearOldDates(ctx context.Context) (int, error) {
	now := p.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := midnight.AddDate(0, 0, -p.retentionDays)
	return p.store.DeleteCreatedBefore(ctx, cutoff)
}

// LimitSize trims the store down to the configured cap, oldest entries first.
func (p *CleanupPolicy) LimitSize(ctx context.Context) (int, error) {
	return p.store.TrimToSize(ctx, p.maxSize)
}

// Cleanup runs all three sweeps in order (expiry, stale-date, size-cap)
// and returns the per-policy deletion counts.
func (p *CleanupPolicy) Cleanup(ctx context.Context) CleanupResult {
	var result CleanupResult

	expired, err := p.ClearExpired(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Expiry sweep failed")
	}
	result.Expired = expired

	oldDate, err := p.ClearOldDates(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Stale-date sweep failed")
	}
	result.OldDate = oldDate

	sizeLimit, err := p.LimitSize(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Size-cap sweep failed")
	}
	result.SizeLimit = sizeLimit

	result.Total = result.Expired + result.OldDate + result.SizeLimit

	metrics.RecordCleanup(result.Expired, result.OldDate, result.SizeLimit)

	if result.Total > 0 {
		log.Debug().
			Int("expired", result.Expired).
			Int("old_date", result.OldDate).
			Int("size_limit", result.SizeLimit).
			Msg("Cache cleanup removed entries")
	}

	return result
}

// MaybeCleanup runs the composite sweep with the configured probability.
// Amortizing maintenance over request traffic keeps the cache bounded
// without a dedicated scheduler; the bound is soft between sweeps.
func (p *CleanupPolicy) MaybeCleanup(ctx context.Context) (CleanupResult, bool) {
	if p.randFloat() >= p.probability {
		return CleanupResult{}, false
	}
	return p.Cleanup(ctx), true
}
