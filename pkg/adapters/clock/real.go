package clock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/ports"
)

// Real schedules callbacks on the wall clock.
// It tracks live timers so Stop can cancel everything at shutdown.
type Real struct {
	mu     sync.Mutex
	timers map[uint64]*time.Timer
	nextID uint64
	logger *slog.Logger
}

// RealOption configures a Real scheduler.
type RealOption func(*Real)

// WithLogger sets the logger used for timer diagnostics.
func WithLogger(logger *slog.Logger) RealOption {
	return func(r *Real) {
		r.logger = logger
	}
}

// NewReal creates a wall-clock scheduler.
func NewReal(opts ...RealOption) *Real {
	r := &Real{
		timers: make(map[uint64]*time.Timer),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule runs fn on its own goroutine once delay has elapsed.
func (r *Real) Schedule(delay time.Duration, fn func()) ports.CancelFunc {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	// Holding the lock while arming keeps the callback from observing a missing entry.
	r.timers[id] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		_, live := r.timers[id]
		delete(r.timers, id)
		r.mu.Unlock()
		if !live {
			return
		}
		fn()
	})
	r.mu.Unlock()

	r.logger.Debug("Timer scheduled", "id", id, "delay", delay)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if t, ok := r.timers[id]; ok {
			t.Stop()
			delete(r.timers, id)
		}
	}
}

// Pending returns the number of timers that have not fired or been cancelled.
func (r *Real) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels all scheduled timers.
func (r *Real) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.logger.Debug("Scheduler stopped all timers")
}
