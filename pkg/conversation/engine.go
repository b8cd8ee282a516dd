package conversation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/aretw0/funnel/pkg/ports"
)

const (
	// DefaultReadyCueDelay separates the checkmark from the continue call-to-action.
	DefaultReadyCueDelay = time.Second
	// DefaultPaymentNoticeDuration is how long the payment notice stays visible.
	DefaultPaymentNoticeDuration = 5 * time.Second
	// DefaultCompletionDelay lets the success cue play before the completion callback.
	DefaultCompletionDelay = time.Second
)

// Engine plays one conversation script at a time.
type Engine struct {
	player *player.Player[domain.ScriptMessage]

	cues       ports.CueSink
	onEvent    func(domain.Event)
	onComplete func()
	logger     *slog.Logger
	now        func() time.Time

	readyDelay      time.Duration
	paymentNotice   time.Duration
	completionDelay time.Duration

	mu         sync.Mutex
	scriptID   string
	cancelCall ports.CancelFunc // pending continue_ready
}

// Option configures an Engine.
type Option func(*Engine)

// WithCueSink sets the destination of audio cues.
func WithCueSink(sink ports.CueSink) Option {
	return func(e *Engine) {
		e.cues = sink
	}
}

// WithEventHandler registers a callback for engine events.
func WithEventHandler(fn func(domain.Event)) Option {
	return func(e *Engine) {
		e.onEvent = fn
	}
}

// WithCompletion registers the funnel-level completion callback.
// It runs once, DefaultCompletionDelay after the terminal message is confirmed.
func WithCompletion(fn func()) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// WithCompletionDelay overrides DefaultCompletionDelay.
func WithCompletionDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.completionDelay = d
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithReadyCueDelay overrides DefaultReadyCueDelay.
func WithReadyCueDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.readyDelay = d
	}
}

// WithPaymentNoticeDuration overrides DefaultPaymentNoticeDuration.
func WithPaymentNoticeDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.paymentNotice = d
	}
}

// WithClock sets the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an idle conversation engine driven by sched.
func New(sched ports.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		cues:            nopSink{},
		onEvent:         func(domain.Event) {},
		onComplete:      func() {},
		logger:          logging.NewNop(),
		now:             time.Now,
		readyDelay:      DefaultReadyCueDelay,
		paymentNotice:   DefaultPaymentNoticeDuration,
		completionDelay: DefaultCompletionDelay,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.player = player.New(sched, player.Hooks[domain.ScriptMessage]{
		OnStart:     e.handleStart,
		OnStepBegin: e.handleStepBegin,
		OnReveal:    e.handleReveal,
		OnAwait:     e.handleAwait,
		OnResume:    e.handleResume,
		OnComplete:  e.handleComplete,
		OnIdle:      e.handleIdle,
	}, player.WithLogger(e.logger), player.WithName("conversation"))
	return e
}

// Start validates script and plays it from the first message,
// discarding any run in progress.
func (e *Engine) Start(script domain.Script) error {
	if err := script.Validate(); err != nil {
		return err
	}

	if e.player.Disposed() {
		return player.ErrDisposed
	}

	e.mu.Lock()
	e.scriptID = script.ID
	e.mu.Unlock()

	e.cues.Play(domain.CueTransition)
	e.logger.Info("Conversation started", "script", script.ID, "messages", script.Len())
	return e.player.Start(Steps(script))
}

// Continue confirms the pending breakpoint or terminal message.
// Extra calls are ignored, so a double-tapped button is harmless.
func (e *Engine) Continue() player.Outcome {
	return e.player.Continue()
}

// State returns a render-ready snapshot.
func (e *Engine) State() domain.ConversationState {
	snap := e.player.Snapshot()
	e.mu.Lock()
	id := e.scriptID
	e.mu.Unlock()

	return domain.ConversationState{
		ScriptID:               id,
		Cursor:                 snap.Cursor,
		Length:                 snap.Length,
		Phase:                  snap.Phase,
		IsTyping:               snap.IsTyping,
		IsAwaitingContinuation: snap.IsAwaitingContinuation,
		Revealed:               snap.Revealed,
	}
}

// Dispose cancels every pending timer; the engine is unusable afterwards.
func (e *Engine) Dispose() {
	e.player.Dispose()
}

// Steps maps script messages to player steps.
func Steps(script domain.Script) []player.Step[domain.ScriptMessage] {
	steps := make([]player.Step[domain.ScriptMessage], len(script.Messages))
	for i, m := range script.Messages {
		steps[i] = player.Step[domain.ScriptMessage]{
			Payload:    m,
			Delay:      m.Delay,
			Typing:     m.Sender.ShowsTyping(),
			Breakpoint: m.Breakpoint,
			Terminal:   m.Terminal,
		}
	}
	return steps
}

func (e *Engine) emit(evt domain.Event) {
	evt.Timestamp = e.now()
	e.onEvent(evt)
}

func (e *Engine) handleStart(int) {
	e.emit(domain.Event{Type: domain.EventStarted})
}

func (e *Engine) handleStepBegin(i int, s player.Step[domain.ScriptMessage]) {
	if s.Typing {
		e.cues.Play(domain.CueTyping)
		e.emit(domain.Event{Type: domain.EventTypingStarted, Index: i})
		return
	}
	e.cues.Play(domain.CueSent)
	e.emit(domain.Event{Type: domain.EventMessageSent, Index: i})
}

func (e *Engine) handleReveal(i int, s player.Step[domain.ScriptMessage]) {
	msg := s.Payload
	e.emit(domain.Event{Type: domain.EventMessageRevealed, Index: i, Message: &msg})

	switch {
	case msg.IsPayment():
		e.cues.Play(domain.CuePayment)
		e.emit(domain.Event{Type: domain.EventPaymentNoticeShown, Index: i, Amount: msg.PaymentAmount})
		e.player.After(e.paymentNotice, func() {
			e.emit(domain.Event{Type: domain.EventPaymentNoticeHidden, Index: i, Amount: msg.PaymentAmount})
		})
	case msg.Sender == domain.SenderCounterpart:
		e.cues.Play(domain.CueReceived)
	case msg.Sender == domain.SenderSystem:
		e.cues.Play(domain.CueNotification)
	}
}

func (e *Engine) handleAwait(i int, _ player.Step[domain.ScriptMessage], _ bool) {
	e.emit(domain.Event{Type: domain.EventAwaitingContinuation, Index: i})
	cancel := e.player.After(e.readyDelay, func() {
		e.cues.Play(domain.CueLevelUp)
		e.emit(domain.Event{Type: domain.EventContinueReady, Index: i})
	})
	e.mu.Lock()
	e.cancelCall = cancel
	e.mu.Unlock()
}

// dropCallToAction cancels a continue_ready that has not fired yet.
func (e *Engine) dropCallToAction() {
	e.mu.Lock()
	cancel := e.cancelCall
	e.cancelCall = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) handleResume(next int) {
	e.dropCallToAction()
	e.emit(domain.Event{Type: domain.EventResumed, Index: next})
}

func (e *Engine) handleComplete() {
	e.dropCallToAction()
	e.cues.Play(domain.CueSuccess)
	e.emit(domain.Event{Type: domain.EventCompleted})
	e.logger.Info("Conversation completed", "script", e.State().ScriptID)
	e.player.After(e.completionDelay, e.onComplete)
}

func (e *Engine) handleIdle() {
	e.emit(domain.Event{Type: domain.EventIdle})
}

type nopSink struct{}

func (nopSink) Play(domain.Cue) {}
