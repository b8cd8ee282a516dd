package player

import (
	"errors"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
)

// ErrDisposed is returned by Start after Dispose.
var ErrDisposed = errors.New("player disposed")

// Step is one entry of a playable script.
type Step[T any] struct {
	Payload T
	Delay   time.Duration
	// Typing shows the typing indicator while Delay runs.
	Typing     bool
	Breakpoint bool
	Terminal   bool
}

// Snapshot is a read-only copy of the player state.
type Snapshot[T any] struct {
	Cursor                 int
	Length                 int
	Phase                  domain.Phase
	IsTyping               bool
	IsAwaitingContinuation bool
	Revealed               []T
}

// Hooks are optional callbacks fired on state changes.
// They are invoked in order, never while the player lock is held.
type Hooks[T any] struct {
	OnStart     func(length int)
	OnStepBegin func(index int, step Step[T])
	OnReveal    func(index int, step Step[T])
	OnAwait     func(index int, step Step[T], terminal bool)
	OnResume    func(next int)
	OnComplete  func()
	OnIdle      func()
}

// Outcome reports what a Continue call did.
type Outcome int

const (
	// OutcomeIgnored: the player was not awaiting continuation.
	OutcomeIgnored Outcome = iota
	// OutcomeResumed: a breakpoint was confirmed and playback resumed.
	OutcomeResumed
	// OutcomeCompleted: the terminal step was confirmed.
	OutcomeCompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResumed:
		return "resumed"
	case OutcomeCompleted:
		return "completed"
	default:
		return "ignored"
	}
}
