package memory_test

import (
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	contract "github.com/aretw0/funnel/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewLoader(
		domain.Script{ID: "start", Messages: []domain.ScriptMessage{
			{Sender: domain.SenderCounterpart, Content: "Hello World", Delay: time.Second},
		}},
		domain.Script{ID: "end", Messages: []domain.ScriptMessage{
			{Sender: domain.SenderUser, Content: "Goodbye"},
			{Sender: domain.SenderSystem, Content: "bye", Terminal: true},
		}},
	)
	require.NoError(t, err)

	contract.ScriptLoaderContractTest(t, loader, map[string]int{"start": 1, "end": 2})
}

func TestInMemoryLoader_RejectsInvalid(t *testing.T) {
	_, err := memory.NewLoader(domain.Script{ID: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptyScript)

	_, err = memory.NewLoader(domain.Script{Messages: []domain.ScriptMessage{{Sender: domain.SenderUser}}})
	assert.Error(t, err)
}
