package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// envelopePrefix marks an encrypted flag value.
const envelopePrefix = "enc:v1:"

// ErrNotEncrypted is returned when a protected flag is stored in plain text.
var ErrNotEncrypted = errors.New("flag value is missing encrypted envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// Keys lists the flag keys to protect. Empty protects every key.
	Keys []string
}

type encryptionMiddleware struct {
	next      ports.FlagStore
	config    EncryptionConfig
	protected map[string]bool
}

// NewEncryptionMiddleware creates a middleware that encrypts flag values using AES-GCM.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	protected := make(map[string]bool, len(config.Keys))
	for _, k := range config.Keys {
		protected[k] = true
	}
	return func(next ports.FlagStore) ports.FlagStore {
		return &encryptionMiddleware{
			next:      next,
			config:    config,
			protected: protected,
		}
	}
}

// ContactKeys are the flag keys holding participant contact data.
var ContactKeys = []string{domain.FlagParticipantName, domain.FlagParticipantContact}

func (m *encryptionMiddleware) covers(key string) bool {
	return len(m.protected) == 0 || m.protected[key]
}

func (m *encryptionMiddleware) Set(ctx context.Context, id, key, value string) error {
	if !m.covers(key) {
		return m.next.Set(ctx, id, key, value)
	}
	ciphertext, err := encrypt([]byte(value), m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt flag %q: %w", key, err)
	}
	return m.next.Set(ctx, id, key, envelopePrefix+base64.StdEncoding.EncodeToString(ciphertext))
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (domain.Flags, error) {
	stored, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make(domain.Flags, len(stored))
	for key, value := range stored {
		encoded, ok := strings.CutPrefix(value, envelopePrefix)
		if !ok {
			// Fail secure: a protected key must never be read back in plain text.
			if m.covers(key) {
				return nil, fmt.Errorf("flag %q: %w", key, ErrNotEncrypted)
			}
			out[key] = value
			continue
		}

		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}
		plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt flag %q: %w", key, err)
		}
		out[key] = string(plain)
	}
	return out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return listNext(ctx, m.next)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
