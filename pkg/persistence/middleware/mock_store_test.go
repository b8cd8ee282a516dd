package middleware_test

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]domain.Flags
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Flags),
	}
}

func (s *MockStore) Set(ctx context.Context, id, key, value string) error {
	if s.data[id] == nil {
		s.data[id] = domain.Flags{}
	}
	s.data[id][key] = value
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (domain.Flags, error) {
	return s.data[id].Clone(), nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}
