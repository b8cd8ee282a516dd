package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/adapters/clock"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortScript() *domain.Script {
	return &domain.Script{ID: "short", Messages: []domain.ScriptMessage{
		{Sender: domain.SenderCounterpart, Content: "Oi {{ .Name }}", Delay: time.Millisecond},
		{Sender: domain.SenderUser, Content: "Olá", Delay: time.Millisecond, Breakpoint: true},
		{Sender: domain.SenderCounterpart, Content: "Tchau", Delay: time.Millisecond, Terminal: true},
	}}
}

func newPlay(t *testing.T, in string) (PlayOptions, *bytes.Buffer) {
	t.Helper()
	app, err := funnel.New()
	require.NoError(t, err)

	sched := clock.NewReal()
	t.Cleanup(sched.Stop)

	var out bytes.Buffer
	return PlayOptions{
		App:    app,
		Sched:  sched,
		Script: shortScript(),
		Name:   "Ana",
		In:     strings.NewReader(in),
		Out:    &out,
	}, &out
}

func TestPlay_ContinuesOnEnter(t *testing.T) {
	opts, out := newPlay(t, "\n\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Play(ctx, opts))

	text := out.String()
	assert.Contains(t, text, "> **Cliente:** Oi Ana")
	assert.Contains(t, text, "**Você:** Olá")
	assert.Contains(t, text, "Tchau")
	assert.Contains(t, text, "Conversation complete.")
}

func TestPlay_StopsWhenInputCloses(t *testing.T) {
	opts, out := newPlay(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Play(ctx, opts))

	assert.Contains(t, out.String(), "Olá")
	assert.NotContains(t, out.String(), "Tchau")
}

func TestPlay_AutoContinueWithCues(t *testing.T) {
	opts, out := newPlay(t, "")
	opts.AutoContinue = true
	opts.Cues = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Play(ctx, opts))

	assert.Contains(t, out.String(), "♪ "+string(domain.CueTransition))
	assert.Contains(t, out.String(), "Conversation complete.")
}

func TestPlay_Cancelled(t *testing.T) {
	opts, out := newPlay(t, "")
	opts.In = nil

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, Play(ctx, opts))
	assert.Contains(t, out.String(), "Interrupted")
}

func TestPlay_UnknownScript(t *testing.T) {
	opts, _ := newPlay(t, "")
	opts.Script = nil
	opts.ScriptID = "missing"

	err := Play(context.Background(), opts)
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}
