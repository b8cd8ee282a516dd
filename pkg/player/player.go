package player

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Player replays a script of Step[T] values on a scheduler.
type Player[T any] struct {
	mu     sync.Mutex
	sched  ports.Scheduler
	hooks  Hooks[T]
	logger *slog.Logger
	name   string

	steps    []Step[T]
	cursor   int
	phase    domain.Phase
	revealed []T
	terminal bool // pending await is terminal

	epoch   uint64
	timerID uint64
	cancels map[uint64]ports.CancelFunc

	disposed atomic.Bool
	outbox   []queued
	flushing bool
}

// queued is a hook invocation tagged with the run that produced it.
type queued struct {
	epoch uint64
	fn    func()
}

// Option configures a Player.
type Option func(*config)

type config struct {
	logger *slog.Logger
	name   string
}

// WithLogger sets the logger used for playback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithName labels log lines, e.g. with the script id.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// New creates an idle player.
func New[T any](sched ports.Scheduler, hooks Hooks[T], opts ...Option) *Player[T] {
	cfg := config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player[T]{
		sched:   sched,
		hooks:   hooks,
		logger:  cfg.logger,
		name:    cfg.name,
		phase:   domain.PhaseIdle,
		cancels: make(map[uint64]ports.CancelFunc),
	}
}

// Start resets the player and plays steps from the beginning.
// Calling Start while a script is playing discards that run entirely.
func (p *Player[T]) Start(steps []Step[T]) error {
	if len(steps) == 0 {
		return domain.ErrEmptyScript
	}

	p.mu.Lock()
	if p.disposed.Load() {
		p.mu.Unlock()
		return ErrDisposed
	}
	p.resetLocked()
	p.steps = append([]Step[T](nil), steps...)
	p.logger.Debug("Playback started", "player", p.name, "steps", len(steps))
	if h := p.hooks.OnStart; h != nil {
		n := len(steps)
		p.enqueue(func() { h(n) })
	}
	p.tickLocked()
	p.mu.Unlock()

	p.flush()
	return nil
}

// Continue confirms a revealed breakpoint or terminal step.
// It is a no-op unless the player is awaiting continuation.
func (p *Player[T]) Continue() Outcome {
	p.mu.Lock()
	if p.disposed.Load() || p.phase != domain.PhaseAwaiting {
		p.mu.Unlock()
		return OutcomeIgnored
	}

	var outcome Outcome
	if p.terminal {
		p.phase = domain.PhaseComplete
		p.terminal = false
		outcome = OutcomeCompleted
		p.logger.Debug("Playback complete", "player", p.name, "revealed", len(p.revealed))
		if h := p.hooks.OnComplete; h != nil {
			p.enqueue(h)
		}
	} else {
		outcome = OutcomeResumed
		if h := p.hooks.OnResume; h != nil {
			next := p.cursor
			p.enqueue(func() { h(next) })
		}
		p.tickLocked()
	}
	p.mu.Unlock()

	p.flush()
	return outcome
}

// After schedules fn on the player's scheduler, bound to the current run.
// fn is dropped if the run is replaced, reset or disposed before it fires.
func (p *Player[T]) After(delay time.Duration, fn func()) ports.CancelFunc {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed.Load() {
		return func() {}
	}
	id := p.scheduleLocked(delay, func() { p.enqueue(fn) })
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if cancel, ok := p.cancels[id]; ok {
			cancel()
			delete(p.cancels, id)
		}
	}
}

// Snapshot returns a copy of the current state.
func (p *Player[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot[T]{
		Cursor:                 p.cursor,
		Length:                 len(p.steps),
		Phase:                  p.phase,
		IsTyping:               p.phase == domain.PhaseTyping,
		IsAwaitingContinuation: p.phase == domain.PhaseAwaiting,
		Revealed:               append([]T(nil), p.revealed...),
	}
}

// Reset cancels pending timers and returns to idle, forgetting the script.
func (p *Player[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed.Load() {
		return
	}
	p.resetLocked()
	p.steps = nil
}

// Dispose cancels all timers permanently. Pending hooks are dropped and
// later calls on the player are no-ops.
func (p *Player[T]) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed.Swap(true) {
		return
	}
	p.cancelAllLocked()
	p.epoch++
	p.outbox = nil
	p.logger.Debug("Player disposed", "player", p.name)
}

// Disposed reports whether Dispose was called.
func (p *Player[T]) Disposed() bool {
	return p.disposed.Load()
}

func (p *Player[T]) resetLocked() {
	p.cancelAllLocked()
	p.epoch++
	p.cursor = 0
	p.revealed = nil
	p.terminal = false
	p.phase = domain.PhaseIdle
}

func (p *Player[T]) cancelAllLocked() {
	for id, cancel := range p.cancels {
		cancel()
		delete(p.cancels, id)
	}
}

// tickLocked begins the step at the cursor, or goes idle at the end of the script.
func (p *Player[T]) tickLocked() {
	if p.cursor >= len(p.steps) {
		p.phase = domain.PhaseIdle
		if h := p.hooks.OnIdle; h != nil {
			p.enqueue(h)
		}
		return
	}

	idx := p.cursor
	step := p.steps[idx]
	if step.Typing {
		p.phase = domain.PhaseTyping
	} else {
		p.phase = domain.PhaseSending
	}
	if h := p.hooks.OnStepBegin; h != nil {
		p.enqueue(func() { h(idx, step) })
	}
	p.scheduleLocked(step.Delay, p.revealLocked)
}

// revealLocked appends the current step and decides whether to pause.
func (p *Player[T]) revealLocked() {
	idx := p.cursor
	step := p.steps[idx]
	p.revealed = append(p.revealed, step.Payload)
	p.cursor++
	p.phase = domain.PhaseRevealed
	if h := p.hooks.OnReveal; h != nil {
		p.enqueue(func() { h(idx, step) })
	}

	terminal := step.Terminal || (step.Breakpoint && p.cursor == len(p.steps))
	if terminal || step.Breakpoint {
		p.phase = domain.PhaseAwaiting
		p.terminal = terminal
		p.logger.Debug("Awaiting continuation", "player", p.name, "index", idx, "terminal", terminal)
		if h := p.hooks.OnAwait; h != nil {
			p.enqueue(func() { h(idx, step, terminal) })
		}
		return
	}
	p.tickLocked()
}

// scheduleLocked arms a timer for the current run. fn runs with p.mu held.
func (p *Player[T]) scheduleLocked(delay time.Duration, fn func()) uint64 {
	epoch := p.epoch
	p.timerID++
	id := p.timerID
	p.cancels[id] = p.sched.Schedule(delay, func() {
		p.mu.Lock()
		if _, live := p.cancels[id]; !live || p.epoch != epoch || p.disposed.Load() {
			p.mu.Unlock()
			return
		}
		delete(p.cancels, id)
		fn()
		p.mu.Unlock()
		p.flush()
	})
	return id
}

// enqueue appends a hook invocation for the current run. Caller must hold p.mu.
func (p *Player[T]) enqueue(fn func()) {
	p.outbox = append(p.outbox, queued{epoch: p.epoch, fn: fn})
}

// flush drains the outbox outside the lock. Only one goroutine drains at a time,
// which keeps hooks in the order their state changes happened even when a hook
// re-enters the player. Hooks from a replaced run are skipped, including those
// already taken into the batch being drained.
func (p *Player[T]) flush() {
	p.mu.Lock()
	if p.flushing {
		p.mu.Unlock()
		return
	}
	p.flushing = true
	for len(p.outbox) > 0 {
		batch := p.outbox
		p.outbox = nil
		p.mu.Unlock()
		for _, q := range batch {
			if p.disposed.Load() {
				break
			}
			p.mu.Lock()
			stale := q.epoch != p.epoch
			p.mu.Unlock()
			if stale {
				continue
			}
			q.fn()
		}
		p.mu.Lock()
	}
	p.flushing = false
	p.mu.Unlock()
}
