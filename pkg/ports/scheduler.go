package ports

import "time"

// CancelFunc cancels a scheduled callback.
// Calling it after the callback ran, or more than once, is a no-op.
type CancelFunc func()

// Scheduler defines how engines defer work.
// Implementations must never run fn synchronously from within Schedule.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) CancelFunc
}
