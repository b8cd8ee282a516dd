package conversation_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/clock"
	"github.com/aretw0/funnel/pkg/adapters/cue"
	"github.com/aretw0/funnel/pkg/conversation"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) record(e domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func (l *eventLog) count(t domain.EventType) int {
	n := 0
	for _, got := range l.types() {
		if got == t {
			n++
		}
	}
	return n
}

type harness struct {
	clock     *clock.Virtual
	cues      *cue.Recorder
	events    *eventLog
	completed int
	engine    *conversation.Engine
}

func newHarness(opts ...conversation.Option) *harness {
	h := &harness{clock: clock.NewVirtual(), cues: &cue.Recorder{}, events: &eventLog{}}
	opts = append([]conversation.Option{
		conversation.WithCueSink(h.cues),
		conversation.WithEventHandler(h.events.record),
		conversation.WithCompletion(func() { h.completed++ }),
	}, opts...)
	h.engine = conversation.New(h.clock, opts...)
	return h
}

func greeting() domain.Script {
	return domain.Script{ID: "greeting", Messages: []domain.ScriptMessage{
		{Sender: domain.SenderCounterpart, Content: "Hi", Delay: 1000 * time.Millisecond},
		{Sender: domain.SenderUser, Content: "Hello", Delay: 1500 * time.Millisecond, Breakpoint: true},
	}}
}

func TestEngine_BreakpointScenario(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Start(greeting()))

	h.clock.Advance(2500 * time.Millisecond)
	st := h.engine.State()
	assert.Equal(t, domain.PhaseAwaiting, st.Phase)
	assert.True(t, st.IsAwaitingContinuation)
	assert.Len(t, st.Revealed, 2)
	assert.Equal(t, "greeting", st.ScriptID)
	assert.Equal(t, 0, h.completed)

	h.clock.Advance(time.Second)
	assert.Equal(t, []domain.Cue{
		domain.CueTransition, domain.CueTyping, domain.CueReceived, domain.CueSent, domain.CueLevelUp,
	}, h.cues.Cues())

	assert.Equal(t, player.OutcomeCompleted, h.engine.Continue())
	assert.Equal(t, player.OutcomeIgnored, h.engine.Continue())
	assert.True(t, h.engine.State().IsComplete())
	assert.Equal(t, 1, h.cues.Count(domain.CueSuccess))
	assert.Equal(t, 1, h.events.count(domain.EventCompleted))

	assert.Equal(t, 0, h.completed, "the success cue plays first")
	h.clock.Advance(conversation.DefaultCompletionDelay)
	assert.Equal(t, 1, h.completed)
}

func TestEngine_CompletionDroppedOnRestart(t *testing.T) {
	h := newHarness(conversation.WithCompletionDelay(500 * time.Millisecond))
	require.NoError(t, h.engine.Start(greeting()))
	h.clock.Advance(2500 * time.Millisecond)
	require.Equal(t, player.OutcomeCompleted, h.engine.Continue())

	require.NoError(t, h.engine.Start(greeting()))
	h.clock.Advance(time.Second)
	assert.Equal(t, 0, h.completed, "the replaced run never reports completion")
}

func TestEngine_EventOrder(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Start(greeting()))
	h.clock.Advance(time.Minute)
	h.engine.Continue()

	assert.Equal(t, []domain.EventType{
		domain.EventStarted,
		domain.EventTypingStarted,
		domain.EventMessageRevealed,
		domain.EventMessageSent,
		domain.EventMessageRevealed,
		domain.EventAwaitingContinuation,
		domain.EventContinueReady,
		domain.EventCompleted,
	}, h.events.types())
}

func TestEngine_PaymentCueOnce(t *testing.T) {
	h := newHarness()
	script := domain.Script{ID: "pay", Messages: []domain.ScriptMessage{
		{Sender: domain.SenderSystem, Content: "Pagamento recebido: R$ 997,00", Delay: 500 * time.Millisecond, PaymentAmount: "997,00"},
		{Sender: domain.SenderCounterpart, Content: "Obrigado!", Delay: 500 * time.Millisecond, Terminal: true},
	}}
	require.NoError(t, h.engine.Start(script))
	h.clock.Advance(time.Minute)

	st := h.engine.State()
	require.Len(t, st.Revealed, 2)
	assert.True(t, strings.Contains(st.Revealed[0].Content, "997,00"))
	assert.Equal(t, 1, h.cues.Count(domain.CuePayment))
	assert.Equal(t, 0, h.cues.Count(domain.CueNotification), "payment replaces the notification cue")
	assert.Equal(t, 1, h.events.count(domain.EventPaymentNoticeShown))
	assert.Equal(t, 1, h.events.count(domain.EventPaymentNoticeHidden))

	h.engine.Continue()
	h.clock.Advance(time.Minute)
	assert.Equal(t, 1, h.cues.Count(domain.CuePayment))
}

func TestEngine_PaymentNoticeDuration(t *testing.T) {
	h := newHarness(conversation.WithPaymentNoticeDuration(2 * time.Second))
	require.NoError(t, h.engine.Start(domain.Script{ID: "pay", Messages: []domain.ScriptMessage{
		{Sender: domain.SenderSystem, Content: "R$ 10,00", Delay: 0, PaymentAmount: "10,00"},
		{Sender: domain.SenderCounterpart, Content: "...", Delay: 10 * time.Second},
	}}))

	h.clock.Advance(1999 * time.Millisecond)
	assert.Equal(t, 0, h.events.count(domain.EventPaymentNoticeHidden))
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, h.events.count(domain.EventPaymentNoticeHidden))
}

func TestEngine_SystemNotification(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Start(domain.Script{ID: "sys", Messages: []domain.ScriptMessage{
		{Sender: domain.SenderSystem, Content: "Novo cliente", Delay: 100 * time.Millisecond},
	}}))
	assert.True(t, h.engine.State().IsTyping, "system lines show the typing indicator")
	h.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, h.cues.Count(domain.CueNotification))
	assert.Equal(t, domain.PhaseIdle, h.engine.State().Phase)
	assert.Equal(t, 1, h.events.count(domain.EventIdle))
}

func TestEngine_EarlyContinueDropsCallToAction(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Start(domain.Script{ID: "bp", Messages: []domain.ScriptMessage{
		{Sender: domain.SenderCounterpart, Content: "a", Delay: 100 * time.Millisecond, Breakpoint: true},
		{Sender: domain.SenderCounterpart, Content: "b", Delay: 5 * time.Second},
	}}))
	h.clock.Advance(100 * time.Millisecond)
	require.Equal(t, player.OutcomeResumed, h.engine.Continue())

	h.clock.Advance(2 * time.Second)
	assert.Equal(t, 0, h.cues.Count(domain.CueLevelUp))
	assert.Equal(t, 0, h.events.count(domain.EventContinueReady))
	assert.Equal(t, 1, h.events.count(domain.EventResumed))
}

func TestEngine_ReadyCueDelay(t *testing.T) {
	h := newHarness(conversation.WithReadyCueDelay(300 * time.Millisecond))
	require.NoError(t, h.engine.Start(greeting()))
	h.clock.Advance(2500 * time.Millisecond)
	assert.Equal(t, 0, h.cues.Count(domain.CueLevelUp))
	h.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, h.cues.Count(domain.CueLevelUp))
}

func TestEngine_DisposeStopsEverything(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.engine.Start(greeting()))
	h.clock.Advance(500 * time.Millisecond)
	h.engine.Dispose()
	before := h.engine.State()
	cuesBefore := len(h.cues.Cues())

	h.clock.Advance(time.Hour)
	assert.Equal(t, before, h.engine.State())
	assert.Len(t, h.cues.Cues(), cuesBefore)
	assert.Equal(t, 0, h.clock.Pending())
	assert.ErrorIs(t, h.engine.Start(greeting()), player.ErrDisposed)
}

func TestEngine_InvalidScript(t *testing.T) {
	h := newHarness()
	assert.ErrorIs(t, h.engine.Start(domain.Script{ID: "empty"}), domain.ErrEmptyScript)
	assert.Empty(t, h.cues.Cues())
}

func TestSteps(t *testing.T) {
	steps := conversation.Steps(greeting())
	require.Len(t, steps, 2)
	assert.True(t, steps[0].Typing)
	assert.False(t, steps[1].Typing)
	assert.True(t, steps[1].Breakpoint)
	assert.Equal(t, 1500*time.Millisecond, steps[1].Delay)
}
