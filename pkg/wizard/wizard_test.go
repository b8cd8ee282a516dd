package wizard_test

import (
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/clock"
	"github.com/aretw0/funnel/pkg/adapters/cue"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/aretw0/funnel/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []domain.Category {
	return []domain.Category{
		{ID: domain.CategoryLayout, Default: "modern", Choices: []domain.Choice{
			{Text: "Crie um layout moderno com seções bem definidas.", Value: "modern"},
			{Text: "Desenvolva um layout minimalista focado em simplicidade.", Value: "minimal"},
			{Text: "Monte um layout arrojado com design ousado.", Value: "bold"},
		}},
		{ID: domain.CategoryColorScheme, Default: "blue", Choices: []domain.Choice{
			{Text: "Azul profissional", Value: "blue"},
			{Text: "Verde vibrante", Value: "green"},
			{Text: "Roxo elegante", Value: "purple"},
		}},
		{ID: domain.CategoryCredibility, Default: "none", Choices: []domain.Choice{
			{Text: "Depoimentos", Value: "testimonials"},
			{Text: "Vitrine", Value: "products"},
			{Text: "Selos", Value: "security"},
		}},
	}
}

type harness struct {
	clock     *clock.Virtual
	cues      *cue.Recorder
	events    []domain.Event
	prompts   map[int]string
	completed int
	wizard    *wizard.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clock: clock.NewVirtual(), cues: &cue.Recorder{}, prompts: map[int]string{}}
	w, err := wizard.New(h.clock, catalog(),
		wizard.WithCueSink(h.cues),
		wizard.WithEventHandler(func(e domain.Event) { h.events = append(h.events, e) }),
		wizard.WithCompletion(func() { h.completed++ }),
		wizard.WithPromptRecorder(func(stage int, p string) { h.prompts[stage] = p }),
	)
	require.NoError(t, err)
	h.wizard = w
	return h
}

func TestNew_Defaults(t *testing.T) {
	h := newHarness(t)
	st := h.wizard.State()
	assert.Equal(t, 1, st.Stage)
	assert.Equal(t, 3, st.TotalStages)
	assert.Equal(t, domain.CategoryLayout, st.Category.ID)
	assert.Equal(t, domain.Settings{"layout": "modern", "colorScheme": "blue", "credibilityElements": "none"}, st.Settings)
	assert.False(t, st.IsGenerating)

	_, err := wizard.New(h.clock, nil)
	assert.ErrorIs(t, err, wizard.ErrNoCategories)
}

func TestSelect_GeneratesThenAwaits(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.wizard.Select("bold"))

	st := h.wizard.State()
	assert.True(t, st.IsGenerating)
	assert.Equal(t, "modern", st.Settings[domain.CategoryLayout], "not applied before the delay")

	h.clock.Advance(wizard.DefaultGeneratingDelay - time.Millisecond)
	assert.True(t, h.wizard.State().IsGenerating)

	h.clock.Advance(time.Millisecond)
	st = h.wizard.State()
	assert.False(t, st.IsGenerating)
	assert.True(t, st.IsAwaitingContinuation)
	assert.Equal(t, "bold", st.Settings[domain.CategoryLayout])
	assert.Equal(t, []string{domain.CategoryLayout}, st.Completed)
	assert.Equal(t, "Monte um layout arrojado com design ousado.", st.Prompts["prompt_stage_1"])
	assert.Equal(t, "Monte um layout arrojado com design ousado.", h.prompts[1])
	assert.Equal(t, []domain.Cue{domain.CueButtonPress, domain.CueSuccess}, h.cues.Cues())
}

func TestSelect_UnknownChoice(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.wizard.Select("green"), domain.ErrUnknownChoice)
	assert.False(t, h.wizard.State().IsGenerating)
}

func TestSelect_LaterOverwrites(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.wizard.Select("bold"))
	h.clock.Advance(time.Second)
	require.NoError(t, h.wizard.Select("minimal"))
	h.clock.Advance(time.Minute)

	assert.Equal(t, "minimal", h.wizard.Settings()[domain.CategoryLayout])
	assert.Equal(t, 1, h.cues.Count(domain.CueSuccess), "the replaced generation never applies")
}

func TestSelectPrompt(t *testing.T) {
	h := newHarness(t)
	v, err := h.wizard.SelectPrompt("quero um layout minimalista com simplicidade")
	require.NoError(t, err)
	assert.Equal(t, "minimal", v)
	h.clock.Advance(time.Minute)
	require.Equal(t, player.OutcomeResumed, h.wizard.Continue())

	v, err = h.wizard.SelectPrompt("algo ROXO")
	require.NoError(t, err)
	assert.Equal(t, "purple", v)
	h.clock.Advance(time.Minute)
	assert.Equal(t, "purple", h.wizard.Settings()[domain.CategoryColorScheme])
	assert.Equal(t, "algo ROXO", h.wizard.State().Prompts["prompt_stage_2"])
}

func TestSelectPrompt_FallsBackToOfferedValue(t *testing.T) {
	v := clock.NewVirtual()
	w, err := wizard.New(v, []domain.Category{
		{ID: domain.CategoryColorScheme, Default: "black", Choices: []domain.Choice{
			{Text: "Vermelho", Value: "red"},
			{Text: "Preto", Value: "black"},
		}},
		{ID: domain.CategoryCredibility, Default: "none", Choices: []domain.Choice{
			{Text: "Selos", Value: "security"},
		}},
	})
	require.NoError(t, err)

	require.ErrorIs(t, w.Select("purple"), domain.ErrUnknownChoice)
	value, err := w.SelectPrompt("quero roxo")
	require.NoError(t, err)
	assert.Equal(t, "black", value, "the category default stands in")
	v.Advance(time.Minute)
	assert.Equal(t, "black", w.Settings()[domain.CategoryColorScheme])

	require.Equal(t, player.OutcomeResumed, w.Continue())
	value, err = w.SelectPrompt("muitos depoimentos")
	require.NoError(t, err)
	assert.Equal(t, "security", value, "a default that is not offered falls to the first choice")
	v.Advance(time.Minute)
	assert.Equal(t, "security", w.Settings()[domain.CategoryCredibility])
}

func TestContinue_WalksToCompletion(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, player.OutcomeIgnored, h.wizard.Continue(), "nothing selected yet")

	for i, v := range []string{"modern", "green", "security"} {
		require.NoError(t, h.wizard.Select(v))
		assert.Equal(t, player.OutcomeIgnored, h.wizard.Continue(), "still generating")
		h.clock.Advance(wizard.DefaultGeneratingDelay)

		want := player.OutcomeResumed
		if i == 2 {
			want = player.OutcomeCompleted
		}
		assert.Equal(t, want, h.wizard.Continue())
		assert.Equal(t, player.OutcomeIgnored, h.wizard.Continue(), "double tap")
	}

	st := h.wizard.State()
	assert.True(t, st.IsComplete)
	assert.False(t, st.IsAwaitingContinuation)
	assert.Equal(t, 1, h.completed)
	assert.Equal(t, 3, h.cues.Count(domain.CueLevelUp))
	assert.Equal(t, domain.Settings{"layout": "modern", "colorScheme": "green", "credibilityElements": "security"}, st.Settings)

	assert.NoError(t, h.wizard.Select("products"), "selections after completion are ignored")
	assert.Equal(t, "security", h.wizard.Settings()[domain.CategoryCredibility])
}

func TestBack(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.wizard.Back(), "first category has nowhere to go")

	require.NoError(t, h.wizard.Select("bold"))
	h.clock.Advance(time.Minute)
	h.wizard.Continue()

	require.NoError(t, h.wizard.Select("purple"))
	require.True(t, h.wizard.Back(), "back cancels the generation in flight")
	h.clock.Advance(time.Minute)

	st := h.wizard.State()
	assert.Equal(t, domain.CategoryLayout, st.Category.ID)
	assert.Equal(t, "blue", st.Settings[domain.CategoryColorScheme])
	assert.Equal(t, "bold", st.Settings[domain.CategoryLayout], "settings survive navigation")

	require.NoError(t, h.wizard.Select("minimal"))
	h.clock.Advance(time.Minute)
	assert.Equal(t, "minimal", h.wizard.Settings()[domain.CategoryLayout])
}

func TestDispose(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.wizard.Select("bold"))
	h.wizard.Dispose()
	h.clock.Advance(time.Minute)

	assert.Equal(t, "modern", h.wizard.Settings()[domain.CategoryLayout])
	assert.Equal(t, 0, h.clock.Pending())
	assert.ErrorIs(t, h.wizard.Select("minimal"), player.ErrDisposed)
}
