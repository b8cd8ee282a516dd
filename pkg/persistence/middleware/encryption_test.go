package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunFlagStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: generateKey(t),
		Keys:      middleware.ContactKeys,
	})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	require.NoError(t, secureStore.Set(ctx, "v", domain.FlagParticipantName, "Ana"))
	require.NoError(t, secureStore.Set(ctx, "v", domain.FlagConversationBeforeDone, domain.FlagTrue))

	// Underlying store holds only the envelope for protected keys.
	stored, _ := underlyingStore.Load(ctx, "v")
	assert.True(t, strings.HasPrefix(stored[domain.FlagParticipantName], "enc:v1:"))
	assert.NotContains(t, stored[domain.FlagParticipantName], "Ana")
	assert.Equal(t, domain.FlagTrue, stored[domain.FlagConversationBeforeDone], "unprotected keys stay readable")

	loaded, err := secureStore.Load(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, "Ana", loaded.Get(domain.FlagParticipantName))
	assert.True(t, loaded.Bool(domain.FlagConversationBeforeDone))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	require.NoError(t, secureStoreOld.Set(ctx, "v", "data", "encrypted-with-old-key"))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "v")
	require.NoError(t, err, "fallback key decrypts old data")
	assert.Equal(t, "encrypted-with-old-key", loaded.Get("data"))

	require.NoError(t, secureStoreNew.Set(ctx, "v", "data", "encrypted-with-new-key"))
	_, err = secureStoreOld.Load(ctx, "v")
	assert.Error(t, err, "old key alone cannot read new-key data")
}

func TestEncryptionMiddleware_PlainProtectedValueFails(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Set(ctx, "v", domain.FlagParticipantContact, "11987654321"))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: generateKey(t),
		Keys:      middleware.ContactKeys,
	})(underlyingStore)

	_, err := secureStore.Load(ctx, "v")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestEncryptionMiddleware_ListDelegates(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	require.NoError(t, inner.Set(ctx, "a", "k", "v"))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(inner)
	ids, err := store.(ports.FlagLister).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(NewMockStore()).(ports.FlagLister).List(ctx)
	assert.Error(t, err)
}
