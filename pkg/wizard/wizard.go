// Package wizard drives the page-customization experience: a fixed sequence of
// categories, each resolved by one choice, a simulated generating delay and an
// explicit continue. Every selection is played as a one-step script on the
// shared timed player.
package wizard

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/classify"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultGeneratingDelay is how long a selection "generates" before it is applied.
const DefaultGeneratingDelay = 2 * time.Second

// ErrNoCategories is returned by New when the catalog is empty.
var ErrNoCategories = errors.New("wizard needs at least one category")

// Selection is the payload of a wizard step.
type Selection struct {
	Stage    int
	Category string
	Value    string
	Prompt   string
}

// Engine is one wizard instance, bound to a page mount.
type Engine struct {
	player *player.Player[Selection]

	cues       ports.CueSink
	onEvent    func(domain.Event)
	onComplete func()
	onPrompt   func(stage int, prompt string)
	logger     *slog.Logger
	now        func() time.Time
	delay      time.Duration

	// mu guards the fields below. It is never held while calling into the player.
	mu         sync.Mutex
	categories []domain.Category
	stage      int
	settings   domain.Settings
	completed  map[string]bool
	prompts    map[string]string
	done       bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCueSink sets the destination of audio cues.
func WithCueSink(sink ports.CueSink) Option {
	return func(e *Engine) { e.cues = sink }
}

// WithEventHandler registers a callback for wizard events.
func WithEventHandler(fn func(domain.Event)) Option {
	return func(e *Engine) { e.onEvent = fn }
}

// WithCompletion registers the callback run once after the final category is confirmed.
func WithCompletion(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// WithPromptRecorder is called with every prompt the participant submits.
func WithPromptRecorder(fn func(stage int, prompt string)) Option {
	return func(e *Engine) { e.onPrompt = fn }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithGeneratingDelay overrides DefaultGeneratingDelay.
func WithGeneratingDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithClock sets the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a wizard positioned on the first category, with every category
// set to its default value.
func New(sched ports.Scheduler, categories []domain.Category, opts ...Option) (*Engine, error) {
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}
	e := &Engine{
		cues:       nopSink{},
		onEvent:    func(domain.Event) {},
		onComplete: func() {},
		onPrompt:   func(int, string) {},
		logger:     logging.NewNop(),
		now:        time.Now,
		delay:      DefaultGeneratingDelay,
		categories: append([]domain.Category(nil), categories...),
		settings:   make(domain.Settings, len(categories)),
		completed:  make(map[string]bool),
		prompts:    make(map[string]string),
	}
	for _, c := range categories {
		e.settings[c.ID] = c.Default
	}
	for _, opt := range opts {
		opt(e)
	}

	e.player = player.New(sched, player.Hooks[Selection]{
		OnStepBegin: e.handleGenerating,
		OnReveal:    e.handleApplied,
		OnAwait:     e.handleAwait,
	}, player.WithLogger(e.logger), player.WithName("wizard"))
	return e, nil
}

// Select applies one of the current category's choices.
func (e *Engine) Select(value string) error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return nil
	}
	cat := e.categories[e.stage]
	if !cat.Offers(value) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q for %s", domain.ErrUnknownChoice, value, cat.ID)
	}
	prompt := value
	for _, ch := range cat.Choices {
		if ch.Value == value {
			prompt = ch.Text
		}
	}
	e.mu.Unlock()

	return e.generate(cat, value, prompt)
}

// SelectPrompt classifies free text into one of the current category's values
// and applies it. It returns the chosen value. A classification the category
// does not offer falls back to its default, or its first choice.
func (e *Engine) SelectPrompt(text string) (string, error) {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return "", nil
	}
	cat := e.categories[e.stage]
	e.mu.Unlock()

	value := classify.ForCategory(cat.ID, cat.Choices, text)
	if !cat.Offers(value) {
		fallback := cat.Default
		if !cat.Offers(fallback) && len(cat.Choices) > 0 {
			fallback = cat.Choices[0].Value
		}
		e.logger.Warn("Classified value not offered, using fallback",
			"category", cat.ID, "value", value, "fallback", fallback)
		value = fallback
	}
	return value, e.generate(cat, value, text)
}

func (e *Engine) generate(cat domain.Category, value, prompt string) error {
	if e.player.Disposed() {
		return player.ErrDisposed
	}

	e.mu.Lock()
	stage := e.stage + 1
	e.prompts[domain.FlagPromptPrefix+strconv.Itoa(stage)] = prompt
	final := e.stage == len(e.categories)-1
	e.mu.Unlock()

	e.cues.Play(domain.CueButtonPress)
	e.onPrompt(stage, prompt)

	return e.player.Start([]player.Step[Selection]{{
		Payload:    Selection{Stage: stage, Category: cat.ID, Value: value, Prompt: prompt},
		Delay:      e.delay,
		Typing:     true,
		Breakpoint: true,
		Terminal:   final,
	}})
}

// Continue moves past an applied selection: to the next category, or, on the
// final category, to completion. It is a no-op unless a selection is awaiting.
func (e *Engine) Continue() player.Outcome {
	if e.player.Continue() == player.OutcomeIgnored {
		return player.OutcomeIgnored
	}

	e.mu.Lock()
	final := e.stage == len(e.categories)-1
	if final {
		e.done = true
	} else {
		e.stage++
	}
	next := e.categories[e.stage].ID
	settings := e.settings.Clone()
	e.mu.Unlock()

	e.cues.Play(domain.CueLevelUp)
	if final {
		e.emit(domain.Event{Type: domain.EventCompleted})
		e.logger.Info("Customization completed", "settings", settings)
		e.onComplete()
		return player.OutcomeCompleted
	}
	e.emit(domain.Event{Type: domain.EventCategoryChanged, Category: next})
	return player.OutcomeResumed
}

// Back returns to the previous category, cancelling a generation in flight.
// Settings are kept and may be overwritten by a new selection.
func (e *Engine) Back() bool {
	e.mu.Lock()
	if e.done || e.stage == 0 {
		e.mu.Unlock()
		return false
	}
	e.stage--
	cat := e.categories[e.stage].ID
	e.mu.Unlock()

	e.player.Reset()
	e.cues.Play(domain.CueClick)
	e.emit(domain.Event{Type: domain.EventCategoryChanged, Category: cat})
	return true
}

// State returns a render-ready snapshot.
func (e *Engine) State() domain.WizardState {
	snap := e.player.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	completed := make([]string, 0, len(e.completed))
	for _, c := range e.categories {
		if e.completed[c.ID] {
			completed = append(completed, c.ID)
		}
	}
	prompts := make(map[string]string, len(e.prompts))
	for k, v := range e.prompts {
		prompts[k] = v
	}
	return domain.WizardState{
		Stage:                  e.stage + 1,
		TotalStages:            len(e.categories),
		Category:               e.categories[e.stage],
		Settings:               e.settings.Clone(),
		Completed:              completed,
		Prompts:                prompts,
		IsGenerating:           !e.done && snap.IsTyping,
		IsAwaitingContinuation: !e.done && snap.IsAwaitingContinuation,
		IsComplete:             e.done,
	}
}

// Settings returns the current settings record.
func (e *Engine) Settings() domain.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Clone()
}

// Dispose cancels any generation in flight; the engine is unusable afterwards.
func (e *Engine) Dispose() {
	e.player.Dispose()
}

func (e *Engine) emit(evt domain.Event) {
	evt.Timestamp = e.now()
	e.onEvent(evt)
}

func (e *Engine) handleGenerating(_ int, s player.Step[Selection]) {
	e.emit(domain.Event{Type: domain.EventGenerating, Category: s.Payload.Category, Value: s.Payload.Value})
}

func (e *Engine) handleApplied(_ int, s player.Step[Selection]) {
	sel := s.Payload
	e.mu.Lock()
	e.settings[sel.Category] = sel.Value
	e.completed[sel.Category] = true
	e.mu.Unlock()

	e.cues.Play(domain.CueSuccess)
	e.emit(domain.Event{Type: domain.EventChoiceApplied, Index: sel.Stage, Category: sel.Category, Value: sel.Value})
}

func (e *Engine) handleAwait(_ int, s player.Step[Selection], _ bool) {
	e.emit(domain.Event{Type: domain.EventAwaitingContinuation, Index: s.Payload.Stage, Category: s.Payload.Category})
}

type nopSink struct{}

func (nopSink) Play(domain.Cue) {}
