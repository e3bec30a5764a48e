// Package keystore owns the journal's symmetric key on disk.
//
// The key is generated once and then only ever read. There is no rotation:
// replacing the file orphans every document encrypted under the old key.
package keystore

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/cryptox"
	"github.com/dmitrijs2005/mindcanvas/internal/filex"
)

// KeyStore provides the key used to seal and open the journal.
type KeyStore interface {
	EnsureKeyExists(ctx context.Context) (bool, error)
	LoadKey(ctx context.Context) ([]byte, error)
}

// FileKeyStore keeps the raw key bytes in a single 0600 file.
type FileKeyStore struct {
	path string
}

func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

func (k *FileKeyStore) Path() string { return k.path }

// EnsureKeyExists creates a new random key if the file is absent and reports
// whether it did. An existing file is never touched.
func (k *FileKeyStore) EnsureKeyExists(ctx context.Context) (bool, error) {
	exists, err := filex.Exists(k.path)
	if err != nil {
		return false, fmt.Errorf("%w: stat key file: %v", common.ErrIO, err)
	}
	if exists {
		return false, nil
	}

	key, err := cryptox.NewKey()
	if err != nil {
		return false, err
	}
	defer common.WipeByteArray(key)

	if err := filex.WriteFileAtomic(k.path, key, 0o600); err != nil {
		return false, fmt.Errorf("%w: write key file: %v", common.ErrIO, err)
	}
	return true, nil
}

// LoadKey reads the key from disk on every call.
func (k *FileKeyStore) LoadKey(ctx context.Context) ([]byte, error) {
	key, err := os.ReadFile(k.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read key file: %v", common.ErrIO, err)
	}
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: key file %s has %d bytes, want %d", common.ErrIO, k.path, len(key), cryptox.KeySize)
	}
	return key, nil
}

// StaticKeyStore serves a fixed in-memory key.
type StaticKeyStore struct {
	Key []byte
}

func (s StaticKeyStore) EnsureKeyExists(ctx context.Context) (bool, error) { return false, nil }

func (s StaticKeyStore) LoadKey(ctx context.Context) ([]byte, error) {
	if len(s.Key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: static key has %d bytes", common.ErrIO, len(s.Key))
	}
	out := make([]byte, len(s.Key))
	copy(out, s.Key)
	return out, nil
}
