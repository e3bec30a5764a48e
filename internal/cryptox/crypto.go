// Package cryptox wraps the symmetric primitives used to protect the journal
// at rest: AES-256-GCM sealing of arbitrary payloads and HKDF sub-key
// derivation from the journal key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of the journal key in bytes (AES-256).
const KeySize = 32

var (
	ErrInvalidKeyLength = errors.New("invalid key length")
	ErrShortCiphertext  = errors.New("ciphertext too short")
)

// NewKey returns a fresh random KeySize-byte key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-GCM under key. A fresh random nonce is
// generated for every call and prepended to the returned ciphertext:
//
//	nonce (12 bytes) || sealed(plaintext) || tag (16 bytes)
//
// Example:
//
//	key, _ := cryptox.NewKey()
//	blob, err := cryptox.Seal(key, []byte(`{"entries":[]}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	plain, err := cryptox.Open(key, blob)
func Seal(key, plaintext []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize(), aesgcm.NonceSize()+len(plaintext)+aesgcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. It fails if the key is wrong or the data was modified.
func Open(key, data []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(data) < ns+aesgcm.Overhead() {
		return nil, ErrShortCiphertext
	}

	return aesgcm.Open(nil, data[:ns], data[ns:], nil)
}

// DeriveKey expands secret into a size-byte sub-key bound to info using
// HKDF-SHA256. The same (secret, info) pair always yields the same key, and
// different info strings yield independent keys.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidKeyLength
	}
	out := make([]byte, size)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return out, nil
}
