package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// MockStore is a map-backed implementation of FlagStore for testing purposes.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Flags
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.Flags)}
}

func (m *MockStore) Load(ctx context.Context, id string) (domain.Flags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id].Clone(), nil
}

func (m *MockStore) Set(ctx context.Context, id, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[id] == nil {
		m.data[id] = domain.Flags{}
	}
	m.data[id][key] = value
	return nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func TestFlagStore_Contract(t *testing.T) {
	// The suite is reused by every adapter; running it against the mock keeps it honest.
	ports.RunFlagStoreContract(t, NewMockStore())
}
