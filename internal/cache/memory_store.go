package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	Entry
	seq uint64
}

// MemoryStore is a concurrency-safe in-memory Store. It backs local
// development and tests; production deployments use the MySQL or Redis
// store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	nextSeq uint64

	// now is swappable so tests can control entry ages.
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	entry := e.Entry
	return &entry, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	s.entries[key] = &memoryEntry{
		Entry: Entry{
			Key:       key,
			Payload:   payload,
			CreatedAt: s.now(),
		},
		seq: s.nextSeq,
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) TrimToSize(_ context.Context, max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max < 0 {
		max = 0
	}
	over := len(s.entries) - max
	if over <= 0 {
		return 0, nil
	}

	ordered := make([]*memoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].seq < ordered[j].seq
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	for _, e := range ordered[:over] {
		delete(s.entries, e.Key)
	}
	return over, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}

// SetCreatedAt backdates an existing entry. Test helper.
func (s *MemoryStore) SetCreatedAt(key string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.CreatedAt = createdAt
	}
}
