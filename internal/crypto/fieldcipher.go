// Package crypto implements the field-level cipher protecting PII columns.
// Individual values are encrypted, not whole rows, so non-PII columns stay
// queryable in plain SQL.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"medvault/internal/domain"
)

// KeySize is the required key length for AES-256.
const KeySize = 32

// FieldCipher encrypts and decrypts free-text PII fields with AES-256-GCM.
// The nonce is generated per call and prepended to the ciphertext, so output
// is not deterministic; only Decrypt with the same key can invert it.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher around a single process-wide key. Key
// rotation is out of scope; the key is loaded once at startup.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d: %w", KeySize, len(key), domain.ErrCrypto)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", domain.ErrCrypto)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", domain.ErrCrypto)
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt seals a plaintext field value into an opaque blob.
func (c *FieldCipher) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", domain.ErrCrypto)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens a blob produced by Encrypt. An empty or absent value decrypts
// to the empty string rather than failing; anything else malformed, truncated,
// or sealed under a different key is a crypto failure, fatal to the enclosing
// operation.
func (c *FieldCipher) Decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext shorter than nonce: %w", domain.ErrCrypto)
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", domain.ErrCrypto)
	}
	return string(plaintext), nil
}
