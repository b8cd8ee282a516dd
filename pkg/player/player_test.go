package player_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/clock"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(payload string, delay time.Duration, typing bool) player.Step[string] {
	return player.Step[string]{Payload: payload, Delay: delay, Typing: typing}
}

func TestPlayer_StartEmpty(t *testing.T) {
	p := player.New(clock.NewVirtual(), player.Hooks[string]{})
	assert.ErrorIs(t, p.Start(nil), domain.ErrEmptyScript)
	assert.Equal(t, domain.PhaseIdle, p.Snapshot().Phase)
}

func TestPlayer_FullReplayEqualsScript(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(12)
		steps := make([]player.Step[string], n)
		want := make([]string, n)
		var total time.Duration
		for i := range steps {
			d := time.Duration(rng.Intn(3000)) * time.Millisecond
			total += d
			want[i] = string(rune('a' + i))
			steps[i] = step(want[i], d, rng.Intn(2) == 0)
		}

		v := clock.NewVirtual()
		p := player.New(v, player.Hooks[string]{})
		require.NoError(t, p.Start(steps))
		v.Advance(total)

		snap := p.Snapshot()
		assert.Equal(t, want, snap.Revealed, "run %d", run)
		assert.Equal(t, n, snap.Cursor)
		assert.Equal(t, domain.PhaseIdle, snap.Phase)
		assert.Equal(t, 0, v.Pending())
	}
}

func TestPlayer_TypingWindow(t *testing.T) {
	v := clock.NewVirtual()
	p := player.New(v, player.Hooks[string]{})
	require.NoError(t, p.Start([]player.Step[string]{
		step("hi", time.Second, true),
		step("hello", 1500*time.Millisecond, false),
		step("bye", 500*time.Millisecond, true),
	}))

	assert.True(t, p.Snapshot().IsTyping, "typing starts as soon as a typing step is current")

	v.Advance(999 * time.Millisecond)
	assert.True(t, p.Snapshot().IsTyping)

	v.Advance(1 * time.Millisecond)
	snap := p.Snapshot()
	assert.False(t, snap.IsTyping, "user-sender delays never show typing")
	assert.Equal(t, domain.PhaseSending, snap.Phase)
	assert.Equal(t, []string{"hi"}, snap.Revealed)

	v.Advance(1500 * time.Millisecond)
	assert.True(t, p.Snapshot().IsTyping)

	v.Advance(500 * time.Millisecond)
	snap = p.Snapshot()
	assert.False(t, snap.IsTyping)
	assert.Equal(t, domain.PhaseIdle, snap.Phase)
}

func TestPlayer_BreakpointAtEndIsTerminal(t *testing.T) {
	v := clock.NewVirtual()
	completed := 0
	p := player.New(v, player.Hooks[string]{OnComplete: func() { completed++ }})

	require.NoError(t, p.Start([]player.Step[string]{
		step("Hi", time.Second, true),
		{Payload: "Hello", Delay: 1500 * time.Millisecond, Breakpoint: true},
	}))

	v.Advance(2500 * time.Millisecond)
	snap := p.Snapshot()
	assert.Equal(t, domain.PhaseAwaiting, snap.Phase)
	assert.True(t, snap.IsAwaitingContinuation)
	assert.Len(t, snap.Revealed, 2)

	v.Advance(time.Hour)
	assert.Equal(t, domain.PhaseAwaiting, p.Snapshot().Phase, "no auto-advance while awaiting")

	assert.Equal(t, player.OutcomeCompleted, p.Continue())
	assert.Equal(t, domain.PhaseComplete, p.Snapshot().Phase)
	assert.Equal(t, 1, completed)

	assert.Equal(t, player.OutcomeIgnored, p.Continue())
	assert.Equal(t, 1, completed)
}

func TestPlayer_BreakpointResumes(t *testing.T) {
	v := clock.NewVirtual()
	var resumedAt []int
	p := player.New(v, player.Hooks[string]{OnResume: func(next int) { resumedAt = append(resumedAt, next) }})

	require.NoError(t, p.Start([]player.Step[string]{
		{Payload: "a", Delay: 100 * time.Millisecond, Typing: true, Breakpoint: true},
		{Payload: "b", Delay: 100 * time.Millisecond, Typing: true},
		{Payload: "c", Delay: 100 * time.Millisecond, Terminal: true},
	}))
	v.Advance(100 * time.Millisecond)
	require.True(t, p.Snapshot().IsAwaitingContinuation)

	assert.Equal(t, player.OutcomeResumed, p.Continue())
	assert.Equal(t, player.OutcomeIgnored, p.Continue(), "double tap resumes once")
	assert.Equal(t, []int{1}, resumedAt)

	afterOnce := p.Snapshot()
	assert.Equal(t, domain.PhaseTyping, afterOnce.Phase)
	assert.Equal(t, 1, afterOnce.Cursor)

	v.Advance(200 * time.Millisecond)
	snap := p.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, snap.Revealed)
	assert.True(t, snap.IsAwaitingContinuation)
}

func TestPlayer_TerminalWinsOverBreakpoint(t *testing.T) {
	v := clock.NewVirtual()
	var awaits []bool
	p := player.New(v, player.Hooks[string]{
		OnAwait: func(_ int, _ player.Step[string], terminal bool) { awaits = append(awaits, terminal) },
	})
	require.NoError(t, p.Start([]player.Step[string]{
		{Payload: "x", Delay: 10 * time.Millisecond, Breakpoint: true, Terminal: true},
		step("never", 10*time.Millisecond, true),
	}))
	v.Advance(10 * time.Millisecond)

	assert.Equal(t, []bool{true}, awaits)
	assert.Equal(t, player.OutcomeCompleted, p.Continue())

	v.Advance(time.Second)
	assert.Equal(t, []string{"x"}, p.Snapshot().Revealed, "no advancement after a terminal step")
}

func TestPlayer_ContinueWhenNotAwaiting(t *testing.T) {
	v := clock.NewVirtual()
	p := player.New(v, player.Hooks[string]{})
	assert.Equal(t, player.OutcomeIgnored, p.Continue(), "idle")

	require.NoError(t, p.Start([]player.Step[string]{step("a", time.Second, true)}))
	before := p.Snapshot()
	assert.Equal(t, player.OutcomeIgnored, p.Continue(), "typing")
	assert.Equal(t, before, p.Snapshot())
}

func TestPlayer_RestartFullyResets(t *testing.T) {
	v := clock.NewVirtual()
	p := player.New(v, player.Hooks[string]{})
	steps := []player.Step[string]{step("a", 100*time.Millisecond, true), step("b", 100*time.Millisecond, true)}

	require.NoError(t, p.Start(steps))
	v.Advance(150 * time.Millisecond)
	require.Equal(t, []string{"a"}, p.Snapshot().Revealed)

	require.NoError(t, p.Start(steps))
	assert.Empty(t, p.Snapshot().Revealed)
	assert.Equal(t, 0, p.Snapshot().Cursor)

	v.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, p.Snapshot().Revealed, "no double playback from the first run")
}

func TestPlayer_NoMutationAfterDispose(t *testing.T) {
	v := clock.NewVirtual()
	hooked := 0
	p := player.New(v, player.Hooks[string]{
		OnReveal: func(int, player.Step[string]) { hooked++ },
		OnIdle:   func() { hooked++ },
	})
	require.NoError(t, p.Start([]player.Step[string]{step("a", time.Second, true), step("b", time.Second, true)}))
	auxFired := false
	p.After(500*time.Millisecond, func() { auxFired = true })

	p.Dispose()
	before := p.Snapshot()
	assert.Equal(t, 0, v.Pending(), "dispose cancels every timer")

	v.Advance(time.Hour)
	assert.Equal(t, before, p.Snapshot())
	assert.Equal(t, 0, hooked)
	assert.False(t, auxFired)

	assert.ErrorIs(t, p.Start([]player.Step[string]{step("c", 0, false)}), player.ErrDisposed)
	assert.Equal(t, player.OutcomeIgnored, p.Continue())
	assert.True(t, p.Disposed())
}

func TestPlayer_StaleCallbackIgnored(t *testing.T) {
	// A scheduler that ignores cancellation, like a host timer that already fired.
	sched := &leakyScheduler{}
	p := player.New(sched, player.Hooks[string]{})
	require.NoError(t, p.Start([]player.Step[string]{step("a", time.Second, true)}))
	p.Dispose()

	sched.fireAll()
	assert.Empty(t, p.Snapshot().Revealed)
}

func TestPlayer_HooksInOrderAndReentrant(t *testing.T) {
	v := clock.NewVirtual()
	var log []string
	var p *player.Player[string]
	p = player.New(v, player.Hooks[string]{
		OnStart:     func(n int) { log = append(log, "start") },
		OnStepBegin: func(i int, s player.Step[string]) { log = append(log, "begin:"+s.Payload) },
		OnReveal:    func(i int, s player.Step[string]) { log = append(log, "reveal:"+s.Payload) },
		OnAwait: func(i int, s player.Step[string], terminal bool) {
			log = append(log, "await")
			if !terminal {
				p.Continue() // re-entering from a hook must not deadlock
			}
		},
		OnResume:   func(int) { log = append(log, "resume") },
		OnComplete: func() { log = append(log, "complete") },
	})

	require.NoError(t, p.Start([]player.Step[string]{
		{Payload: "a", Delay: 10 * time.Millisecond, Typing: true, Breakpoint: true},
		{Payload: "b", Delay: 10 * time.Millisecond, Terminal: true},
	}))
	v.Advance(time.Second)
	p.Continue()

	assert.Equal(t, []string{
		"start", "begin:a", "reveal:a", "await", "resume", "begin:b", "reveal:b", "await", "complete",
	}, log)
}

func TestPlayer_AfterBoundToRun(t *testing.T) {
	v := clock.NewVirtual()
	p := player.New(v, player.Hooks[string]{})
	require.NoError(t, p.Start([]player.Step[string]{step("a", time.Second, true)}))

	fired := 0
	p.After(100*time.Millisecond, func() { fired++ })
	cancel := p.After(100*time.Millisecond, func() { fired += 10 })
	cancel()
	v.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, fired)

	p.After(100*time.Millisecond, func() { fired++ })
	require.NoError(t, p.Start([]player.Step[string]{step("b", time.Second, true)}))
	v.Advance(time.Second)
	assert.Equal(t, 1, fired, "aux timers from a replaced run never fire")
}

func TestPlayer_RestartFromHookDropsOldHooks(t *testing.T) {
	v := clock.NewVirtual()
	var awaits, begins []string
	var p *player.Player[string]
	p = player.New(v, player.Hooks[string]{
		OnStepBegin: func(i int, s player.Step[string]) { begins = append(begins, s.Payload) },
		OnReveal: func(i int, s player.Step[string]) {
			if s.Payload == "old" {
				require.NoError(t, p.Start([]player.Step[string]{step("new", time.Second, true)}))
			}
		},
		OnAwait: func(i int, s player.Step[string], terminal bool) { awaits = append(awaits, s.Payload) },
	})

	require.NoError(t, p.Start([]player.Step[string]{
		{Payload: "old", Delay: 10 * time.Millisecond, Breakpoint: true},
		step("tail", 10*time.Millisecond, false),
	}))
	v.Advance(10 * time.Millisecond)

	assert.Empty(t, awaits, "await of the replaced run must not fire")
	assert.Equal(t, []string{"old", "new"}, begins)
	snap := p.Snapshot()
	assert.Equal(t, domain.PhaseTyping, snap.Phase)
	assert.Empty(t, snap.Revealed)
	assert.Equal(t, player.OutcomeIgnored, p.Continue())

	v.Advance(time.Second)
	assert.Equal(t, []string{"new"}, p.Snapshot().Revealed)
}

func TestPlayer_Reset(t *testing.T) {
	v := clock.NewVirtual()
	p := player.New(v, player.Hooks[string]{})
	require.NoError(t, p.Start([]player.Step[string]{step("a", time.Second, true)}))
	p.Reset()

	v.Advance(time.Hour)
	snap := p.Snapshot()
	assert.Equal(t, domain.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Revealed)
	assert.Equal(t, 0, snap.Length)
}

func TestPlayer_RealClockConcurrentContinue(t *testing.T) {
	r := clock.NewReal()
	defer r.Stop()

	done := make(chan struct{})
	var once sync.Once
	completed := 0
	var mu sync.Mutex
	p := player.New(r, player.Hooks[string]{
		OnComplete: func() {
			mu.Lock()
			completed++
			mu.Unlock()
			once.Do(func() { close(done) })
		},
	})
	require.NoError(t, p.Start([]player.Step[string]{{Payload: "a", Delay: 5 * time.Millisecond, Terminal: true}}))
	require.Eventually(t, func() bool { return p.Snapshot().IsAwaitingContinuation }, 2*time.Second, time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Continue()
		}()
	}
	wg.Wait()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, completed)
}

type leakyScheduler struct {
	fns []func()
}

func (l *leakyScheduler) Schedule(_ time.Duration, fn func()) ports.CancelFunc {
	l.fns = append(l.fns, fn)
	return func() {}
}

func (l *leakyScheduler) fireAll() {
	for _, fn := range l.fns {
		fn()
	}
}
