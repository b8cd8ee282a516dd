package http

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/conversation"
	"github.com/aretw0/funnel/pkg/funnel"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/wizard"
)

// DefaultMountTTL is how long an untouched engine survives.
const DefaultMountTTL = 30 * time.Minute

// mount is the engine currently driving one visitor's page.
type mount struct {
	page  funnel.Page
	stage funnel.Stage
	conv  *conversation.Engine
	wiz   *wizard.Engine

	touched time.Time
}

func (m *mount) dispose() {
	if m.conv != nil {
		m.conv.Dispose()
	}
	if m.wiz != nil {
		m.wiz.Dispose()
	}
}

// Mounts holds at most one engine per visitor.
type Mounts struct {
	mu      sync.Mutex
	byID    map[string]*mount
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
}

// NewMounts creates an empty registry.
func NewMounts(ttl time.Duration, metrics *observability.Metrics) *Mounts {
	return &Mounts{
		byID:    make(map[string]*mount),
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
	}
}

// put installs m for visitor, disposing the engine it replaces.
func (ms *Mounts) put(visitor string, m *mount) {
	m.touched = ms.now()
	ms.mu.Lock()
	prev := ms.byID[visitor]
	ms.byID[visitor] = m
	ms.mu.Unlock()

	if prev != nil {
		prev.dispose()
		ms.metrics.MountRemoved(string(prev.page))
	}
	ms.metrics.MountAdded(string(m.page))
}

// get returns the visitor's mount and refreshes its idle timer.
func (ms *Mounts) get(visitor string) (*mount, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	m, ok := ms.byID[visitor]
	if ok {
		m.touched = ms.now()
	}
	return m, ok
}

// Remove disposes the visitor's engine, reporting whether one was mounted.
func (ms *Mounts) Remove(visitor string) bool {
	ms.mu.Lock()
	m, ok := ms.byID[visitor]
	delete(ms.byID, visitor)
	ms.mu.Unlock()

	if ok {
		m.dispose()
		ms.metrics.MountRemoved(string(m.page))
	}
	return ok
}

// Len returns the number of mounted engines.
func (ms *Mounts) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.byID)
}

// Reap disposes engines idle for longer than the TTL and returns how many.
func (ms *Mounts) Reap() int {
	cutoff := ms.now().Add(-ms.ttl)

	ms.mu.Lock()
	var stale []*mount
	for id, m := range ms.byID {
		if m.touched.Before(cutoff) {
			stale = append(stale, m)
			delete(ms.byID, id)
		}
	}
	ms.mu.Unlock()

	for _, m := range stale {
		m.dispose()
		ms.metrics.MountRemoved(string(m.page))
	}
	return len(stale)
}

// Run reaps on every interval until ctx is done.
func (ms *Mounts) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ms.Reap()
		}
	}
}

// Close disposes every engine.
func (ms *Mounts) Close() {
	ms.mu.Lock()
	all := ms.byID
	ms.byID = make(map[string]*mount)
	ms.mu.Unlock()

	for _, m := range all {
		m.dispose()
		ms.metrics.MountRemoved(string(m.page))
	}
}
