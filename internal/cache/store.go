package cache

import (
	"context"
	"time"
)

// Entry is one cached row: an opaque serialized snapshot plus the write
// timestamp that drives every eviction policy.
type Entry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// Store is the persistence contract for cache rows. Put is an upsert that
// always stamps a fresh CreatedAt; an update-in-place that preserved the
// old timestamp would defeat TTL expiry. Get returns (nil, nil) on a miss.
//
// Implementations must keep delete-and-replace atomic: a read racing an
// upsert observes either the fully old or fully new row, never a transient
// absence. Every mutation commits immediately.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error

	// DeleteCreatedBefore removes every entry written before cutoff and
	// returns the number of rows removed.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// TrimToSize removes oldest-first (by CreatedAt, ties broken by
	// insertion order) until at most max entries remain, returning the
	// number removed.
	TrimToSize(ctx context.Context, max int) (int, error)

	Count(ctx context.Context) (int, error)
}
