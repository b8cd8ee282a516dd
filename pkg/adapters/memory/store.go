package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Store implements ports.FlagStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Flags
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Flags),
	}
}

// Load returns a copy of the flags of id, so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, id string) (domain.Flags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[id].Clone(), nil
}

// Set writes a single flag.
func (s *Store) Set(ctx context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, ok := s.data[id]
	if !ok {
		flags = make(domain.Flags)
		s.data[id] = flags
	}
	flags[key] = value
	return nil
}

// Delete removes every flag of id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the ids holding flags.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
