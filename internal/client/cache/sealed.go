package cache

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
)

// NewAEADFromPEM derives an AES-256-GCM cipher from PEM content, usually
// the client key, so the cache is only readable on the enrolled machine.
func NewAEADFromPEM(pemData []byte) (cipher.AEAD, error) {
	key := sha256.Sum256(pemData)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return aead, nil
}

// SealedCache encrypts values before handing them to the inner cache.
// Stored form is base64(nonce || ciphertext).
type SealedCache struct {
	inner Cache
	aead  cipher.AEAD
}

// NewSealed wraps inner with aead.
func NewSealed(inner Cache, aead cipher.AEAD) *SealedCache {
	return &SealedCache{inner: inner, aead: aead}
}

// NewSealedFromFile reads a PEM file and wraps inner with the derived key.
func NewSealedFromFile(inner Cache, pemPath string) (*SealedCache, error) {
	data, err := os.ReadFile(pemPath)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	aead, err := NewAEADFromPEM(data)
	if err != nil {
		return nil, err
	}
	return NewSealed(inner, aead), nil
}

// Get implements Cache. Values that fail to decrypt read as missing.
func (c *SealedCache) Get(key string) (string, bool) {
	enc, ok := c.inner.Get(key)
	if !ok {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil || len(raw) < c.aead.NonceSize() {
		return "", false
	}
	nonce, ct := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ct, []byte(key))
	if err != nil {
		return "", false
	}
	return string(plain), true
}

// Set implements Cache. The key is bound as associated data so values
// cannot be swapped between keys.
func (c *SealedCache) Set(key, value string) error {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	ct := c.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return c.inner.Set(key, base64.StdEncoding.EncodeToString(ct))
}

// Delete implements Cache.
func (c *SealedCache) Delete(key string) error {
	return c.inner.Delete(key)
}
