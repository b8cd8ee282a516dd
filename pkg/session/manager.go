package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates flag access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
// Manager itself satisfies ports.FlagStore.
type Manager struct {
	store ports.FlagStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given flag store.
func NewManager(store ports.FlagStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load reads the flags of id.
func (m *Manager) Load(ctx context.Context, id string) (domain.Flags, error) {
	var flags domain.Flags
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		flags, err = m.store.Load(ctx, id)
		return err
	})
	return flags, err
}

// Set writes one flag.
func (m *Manager) Set(ctx context.Context, id, key, value string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Set(ctx, id, key, value)
	})
}

// SetOnce writes key only if it is not already set, reporting whether it wrote.
// Completion flags go through here so a replayed completion is not counted twice.
func (m *Manager) SetOnce(ctx context.Context, id, key, value string) (bool, error) {
	written := false
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		flags, err := m.store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check flag: %w", err)
		}
		if flags.Has(key) {
			return nil
		}
		if err := m.store.Set(ctx, id, key, value); err != nil {
			return err
		}
		written = true
		return nil
	})
	return written, err
}

// Delete removes every flag of id.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store when it can enumerate ids.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	lister, ok := m.store.(ports.FlagLister)
	if !ok {
		return nil, fmt.Errorf("flag store %T cannot list ids", m.store)
	}
	return lister.List(ctx)
}

// Store returns the underlying flag store.
func (m *Manager) Store() ports.FlagStore {
	return m.store
}

// WithLock executes a function while holding the lock for id.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
