// Package sealbox encrypts short secrets for storage in text columns.
package sealbox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	prefix  = "sealed:v1:"
	hkdfCtx = "site-core credential seal"
)

var (
	ErrNoKey     = errors.New("sealbox: value is sealed but no key is configured")
	ErrMalformed = errors.New("sealbox: malformed sealed value")
)

// Box seals values with XChaCha20-Poly1305 under a key derived from an
// operator secret. A nil *Box stores values as they are and can still read
// plaintext rows.
type Box struct {
	aead cipher.AEAD
}

// New derives the sealing key from secret. An empty secret yields a nil Box.
func New(secret string) (*Box, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, nil
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfCtx)), key); err != nil {
		return nil, fmt.Errorf("sealbox: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sealbox: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Sealed reports whether v carries the sealed-value prefix.
func Sealed(v string) bool { return strings.HasPrefix(v, prefix) }

// Seal encrypts plain. Empty strings are stored as they are.
func (b *Box) Seal(plain string) (string, error) {
	if b == nil || plain == "" {
		return plain, nil
	}
	nonce := make([]byte, b.aead.NonceSize(), b.aead.NonceSize()+len(plain)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sealbox: nonce: %w", err)
	}
	out := b.aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Open decrypts v. Values without the sealed prefix are returned unchanged.
func (b *Box) Open(v string) (string, error) {
	if !Sealed(v) {
		return v, nil
	}
	if b == nil {
		return "", ErrNoKey
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(v, prefix))
	if err != nil || len(raw) < b.aead.NonceSize() {
		return "", ErrMalformed
	}
	nonce, ct := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plain, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("sealbox: open: %w", err)
	}
	return string(plain), nil
}
