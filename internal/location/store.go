// Package location holds the registry of places weather can be queried
// for. The engine only reads from it: coordinate writes and the rest of
// the location lifecycle belong to the surrounding application.
package location

import (
	"context"
	"errors"
	"sync"

	"github.com/mizukake/tenki/internal/models"
)

// ErrNotFound is returned for unknown location identifiers.
var ErrNotFound = errors.New("location not found")

type Store interface {
	Get(ctx context.Context, id int64) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	locations map[int64]models.Location
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locations: make(map[int64]models.Location)}
}

// Add registers a location and returns its assigned ID.
func (s *MemoryStore) Add(loc models.Location) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	loc.ID = s.nextID
	s.locations[loc.ID] = loc
	return loc.ID
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &loc, nil
}

func (s *MemoryStore) List(_ context.Context) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	return out, nil
}
