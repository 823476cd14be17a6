package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisPayloadPrefix = "weather_cache:"
	redisIndexKey      = "weather_cache:index"
)

// RedisStore is an alternative Store backend. Payloads live under
// per-entry keys; a sorted set scored by the write time (microseconds)
// provides the age ordering the sweeps need. Ties share a score and are
// ordered lexicographically by member, which is deterministic.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client, now: time.Now}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	score, err := s.client.ZScore(ctx, redisIndexKey, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache index: %w", err)
	}

	payload, err := s.client.Get(ctx, redisPayloadPrefix+key).Bytes()
	if err == redis.Nil {
		// Index and payload drifted apart; repair by dropping the index row.
		_ = s.client.ZRem(ctx, redisIndexKey, key).Err()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache payload: %w", err)
	}

	return &Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: time.UnixMicro(int64(score)),
	}, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, payload []byte) error {
	createdAt := s.now()

	// SET replaces atomically, giving the insert-or-replace upsert directly.
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisPayloadPrefix+key, payload, 0)
	pipe.ZAdd(ctx, redisIndexKey, &redis.Z{
		Score:  float64(createdAt.UnixMicro()),
		Member: key,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisPayloadPrefix+key)
	pipe.ZRem(ctx, redisIndexKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	max := "(" + strconv.FormatInt(cutoff.UnixMicro(), 10)
	keys, err := s.client.ZRangeByScore(ctx, redisIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("listing expired cache entries: %w", err)
	}
	return len(keys), s.removeKeys(ctx, keys)
}

func (s *RedisStore) TrimToSize(ctx context.Context, max int) (int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if max < 0 {
		max = 0
	}
	over := total - max
	if over <= 0 {
		return 0, nil
	}

	keys, err := s.client.ZRange(ctx, redisIndexKey, 0, int64(over-1)).Result()
	if err != nil {
		return 0, fmt.Errorf("listing oldest cache entries: %w", err)
	}
	return len(keys), s.removeKeys(ctx, keys)
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	total, err := s.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return int(total), nil
}

func (s *RedisStore) removeKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	members := make([]interface{}, len(keys))
	payloadKeys := make([]string, len(keys))
	for i, k := range keys {
		members[i] = k
		payloadKeys[i] = redisPayloadPrefix + k
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, payloadKeys...)
	pipe.ZRem(ctx, redisIndexKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing cache entries: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
