package script_test

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/ports/tests"
	"github.com/aretw0/funnel/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ScriptLoader = (*script.Loader)(nil)

func TestEmbedded_Contract(t *testing.T) {
	l, err := script.NewEmbedded()
	require.NoError(t, err)

	tests.ScriptLoaderContractTest(t, l, map[string]int{
		script.ConversationBefore: 15,
		script.ConversationAfter:  9,
	})
}

func TestEmbedded_Content(t *testing.T) {
	l, err := script.NewEmbedded()
	require.NoError(t, err)

	before, err := l.Script(script.ConversationBefore)
	require.NoError(t, err)
	last := before.Messages[len(before.Messages)-1]
	assert.True(t, last.Breakpoint, "part one ends on a breakpoint")
	assert.Equal(t, domain.SenderCounterpart, before.Messages[0].Sender)
	assert.Equal(t, time.Second, before.Messages[0].Delay)

	after, err := l.Script(script.ConversationAfter)
	require.NoError(t, err)
	pay := after.Messages[len(after.Messages)-1]
	assert.True(t, pay.Terminal)
	assert.Equal(t, "997,00", pay.PaymentAmount)
	assert.Contains(t, pay.Content, "997,00")

	cats, err := l.Catalog()
	require.NoError(t, err)
	require.Len(t, cats, 5)
	ids := make([]string, len(cats))
	defaults := domain.Settings{}
	for i, c := range cats {
		ids[i] = c.ID
		defaults[c.ID] = c.Default
		assert.Len(t, c.Choices, 3, c.ID)
	}
	assert.Equal(t, []string{
		domain.CategoryLayout, domain.CategoryColorScheme, domain.CategoryTypography,
		domain.CategoryHeaderStyle, domain.CategoryCredibility,
	}, ids)
	assert.Equal(t, domain.Settings{
		"layout": "modern", "colorScheme": "blue", "typography": "modern",
		"headerStyle": "minimal", "credibilityElements": "none",
	}, defaults)
}

func TestRender(t *testing.T) {
	l, err := script.NewEmbedded()
	require.NoError(t, err)
	before, err := l.Script(script.ConversationBefore)
	require.NoError(t, err)

	rendered, err := script.Render(before, script.Vars{Name: "Ana"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rendered.Messages[0].Content, "Oi Ana!"))
	assert.Contains(t, before.Messages[0].Content, "{{ .Name }}", "the source script is untouched")
	assert.Equal(t, before.Len(), rendered.Len())
}

func TestParseScript_Delays(t *testing.T) {
	s, err := script.ParseScript([]byte(`
id: delays
messages:
  - {sender: client, content: a, delay: 1500}
  - {sender: user, content: b, delay: "2s"}
  - {sender: system, content: c, delay: "250"}
  - {sender: system, content: d}
`))
	require.NoError(t, err)
	assert.Equal(t, domain.SenderCounterpart, s.Messages[0].Sender, "client is an alias")
	assert.Equal(t, 1500*time.Millisecond, s.Messages[0].Delay)
	assert.Equal(t, 2*time.Second, s.Messages[1].Delay)
	assert.Equal(t, 250*time.Millisecond, s.Messages[2].Delay)
	assert.Zero(t, s.Messages[3].Delay)
}

func TestParseDocument_Invalid(t *testing.T) {
	cases := map[string]string{
		"not yaml":          "id: [",
		"empty":             "",
		"missing id":        "messages: [{sender: user, content: x}]",
		"no messages":       "id: x\nmessages: []",
		"unknown sender":    "id: x\nmessages: [{sender: bot, content: x}]",
		"unknown field":     "id: x\nmessages: [{sender: user, content: x, color: red}]",
		"bad template":      "id: x\nmessages: [{sender: user, content: '{{ .Name '}]",
		"payment on user":   "id: x\nmessages: [{sender: user, content: x, payment_amount: '1,00'}]",
		"empty catalog":     "categories: []",
		"no choices":        "categories: [{id: a, default: x, choices: []}]",
		"duplicate choices": "categories: [{id: a, default: x, choices: [{text: t, value: v}, {text: u, value: v}]}]",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := script.ParseDocument([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestParseKindMismatch(t *testing.T) {
	_, err := script.ParseCatalog([]byte("id: x\nmessages: [{sender: user, content: x}]"))
	assert.ErrorIs(t, err, script.ErrInvalidDocument)

	_, err = script.ParseScript([]byte("categories: [{id: a, default: x, choices: [{text: t, value: v}]}]"))
	assert.ErrorIs(t, err, script.ErrInvalidDocument)
}

func TestNew_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"one.yaml":   {Data: []byte("id: one\nmessages: [{sender: user, content: hi}]")},
		"two.yml":    {Data: []byte("id: two\nmessages: [{sender: system, content: ok, terminal: true}]")},
		"README.md":  {Data: []byte("# ignored")},
		"nested/x.y": {Data: []byte("ignored")},
	}
	l, err := script.New(fsys)
	require.NoError(t, err)

	tests.ScriptLoaderContractTest(t, l, map[string]int{"one": 1, "two": 1})

	_, err = l.Catalog()
	assert.ErrorIs(t, err, script.ErrNoCatalog)
	_, err = l.Script("missing")
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestNew_DuplicateID(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("id: same\nmessages: [{sender: user, content: hi}]")},
		"b.yaml": {Data: []byte("id: same\nmessages: [{sender: user, content: hi}]")},
	}
	_, err := script.New(fsys)
	assert.ErrorIs(t, err, script.ErrInvalidDocument)
}
