package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFlagStoreContract runs a suite of tests to verify that a FlagStore implementation
// adheres to the defined interface contract.
func RunFlagStoreContract(t *testing.T, store FlagStore) {
	ctx := context.Background()
	visitorID := "contract-test-visitor-" + time.Now().Format("20060102150405")

	t.Run("Set and Load", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, visitorID, domain.FlagParticipantName, "Ana"))
		require.NoError(t, store.Set(ctx, visitorID, domain.FlagConversationBeforeDone, domain.FlagTrue))

		flags, err := store.Load(ctx, visitorID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "Ana", flags.Get(domain.FlagParticipantName))
		assert.True(t, flags.Bool(domain.FlagConversationBeforeDone))
	})

	t.Run("Set Is Additive", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, visitorID, domain.FlagCustomizationDone, domain.FlagTrue))

		flags, err := store.Load(ctx, visitorID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", flags.Get(domain.FlagParticipantName), "earlier keys must survive later writes")
		assert.True(t, flags.Bool(domain.FlagCustomizationDone))
	})

	t.Run("Set Overwrites Same Key", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, visitorID, domain.FlagParticipantName, "Bia"))

		flags, err := store.Load(ctx, visitorID)
		require.NoError(t, err)
		assert.Equal(t, "Bia", flags.Get(domain.FlagParticipantName))
	})

	t.Run("Load Unknown Is Empty", func(t *testing.T) {
		flags, err := store.Load(ctx, "non-existent-"+visitorID)
		require.NoError(t, err)
		assert.NotNil(t, flags)
		assert.Empty(t, flags)
	})

	t.Run("Loaded Flags Are Detached", func(t *testing.T) {
		flags, err := store.Load(ctx, visitorID)
		require.NoError(t, err)
		flags["mutated"] = "locally"

		again, err := store.Load(ctx, visitorID)
		require.NoError(t, err)
		assert.False(t, again.Has("mutated"))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, visitorID), "Delete should not return error")

		flags, err := store.Load(ctx, visitorID)
		require.NoError(t, err)
		assert.Empty(t, flags, "Load after Delete should return no flags")
	})
}
