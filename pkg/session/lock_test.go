package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
)

type nopStore struct{}

func (nopStore) Load(ctx context.Context, id string) (domain.Flags, error) {
	return domain.Flags{}, nil
}
func (nopStore) Set(ctx context.Context, id, key, value string) error { return nil }
func (nopStore) Delete(ctx context.Context, id string) error          { return nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("visitor-%d", i)
		_ = mgr.Set(ctx, id, domain.FlagParticipantName, "x")
		_ = mgr.Delete(ctx, id)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
