package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/strata/pkg/ports"
)

// envelopeHeader marks layer bytes written by the encryption middleware.
var envelopeHeader = []byte("strata-aesgcm:")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.AssetStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts layer bytes at
// rest using AES-GCM. Stored values are a header followed by the base64
// ciphertext, so text-only backends can hold them.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.AssetStore) ports.AssetStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Write(ctx context.Context, identifier string, data []byte) error {
	ciphertext, err := encrypt(data, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", identifier, err)
	}

	envelope := make([]byte, 0, len(envelopeHeader)+base64.StdEncoding.EncodedLen(len(ciphertext)))
	envelope = append(envelope, envelopeHeader...)
	envelope = base64.StdEncoding.AppendEncode(envelope, ciphertext)
	return m.next.Write(ctx, identifier, envelope)
}

func (m *encryptionMiddleware) Read(ctx context.Context, identifier string) ([]byte, error) {
	envelope, err := m.next.Read(ctx, identifier)
	if err != nil {
		return nil, err
	}

	// Plain documents are rejected: once encryption is configured we expect it.
	encoded, ok := bytes.CutPrefix(envelope, envelopeHeader)
	if !ok {
		return nil, fmt.Errorf("%s is missing the encryption envelope", identifier)
	}

	ciphertext, err := base64.StdEncoding.AppendDecode(nil, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// Try Active, then Fallback
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", identifier, err)
	}
	return plainText, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, identifier string) error {
	return m.next.Delete(ctx, identifier)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) Watch(ctx context.Context) (<-chan string, error) {
	return watchThrough(ctx, m.next)
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
