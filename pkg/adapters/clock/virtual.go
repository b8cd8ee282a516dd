package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/aretw0/funnel/pkg/ports"
)

type virtualTimer struct {
	id  uint64
	due time.Duration
	fn  func()
}

// Virtual is a manually advanced scheduler.
// Time only moves when Advance is called; callbacks run on the caller's goroutine,
// in due order, ties broken by scheduling order.
type Virtual struct {
	mu     sync.Mutex
	now    time.Duration
	nextID uint64
	timers []*virtualTimer
}

// NewVirtual creates a virtual clock at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Schedule registers fn to run once the clock has advanced by delay.
// A zero delay still waits for the next Advance.
func (v *Virtual) Schedule(delay time.Duration, fn func()) ports.CancelFunc {
	if delay < 0 {
		delay = 0
	}
	v.mu.Lock()
	v.nextID++
	t := &virtualTimer{id: v.nextID, due: v.now + delay, fn: fn}
	v.timers = append(v.timers, t)
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, cand := range v.timers {
			if cand.id == t.id {
				v.timers = append(v.timers[:i], v.timers[i+1:]...)
				return
			}
		}
	}
}

// Advance moves the clock forward by d, firing every timer that falls due,
// including timers scheduled by callbacks fired during this advance.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	v.mu.Unlock()

	for {
		v.mu.Lock()
		next := v.popDue(target)
		if next == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = next.due
		v.mu.Unlock()

		next.fn()
	}
}

// RunAll advances until no timers remain and returns the total time elapsed.
// It stops after limit callbacks to guard against self-rescheduling loops.
func (v *Virtual) RunAll(limit int) time.Duration {
	var elapsed time.Duration
	for i := 0; i < limit; i++ {
		v.mu.Lock()
		if len(v.timers) == 0 {
			v.mu.Unlock()
			break
		}
		earliest := v.timers[0].due
		for _, t := range v.timers[1:] {
			if t.due < earliest {
				earliest = t.due
			}
		}
		step := earliest - v.now
		v.mu.Unlock()

		v.Advance(step)
		elapsed += step
	}
	return elapsed
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Pending returns the number of timers that have not fired or been cancelled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

// popDue removes and returns the earliest timer due at or before target.
// Caller must hold v.mu.
func (v *Virtual) popDue(target time.Duration) *virtualTimer {
	if len(v.timers) == 0 {
		return nil
	}
	sort.SliceStable(v.timers, func(i, j int) bool {
		if v.timers[i].due != v.timers[j].due {
			return v.timers[i].due < v.timers[j].due
		}
		return v.timers[i].id < v.timers[j].id
	})
	first := v.timers[0]
	if first.due > target {
		return nil
	}
	v.timers = v.timers[1:]
	return first
}
