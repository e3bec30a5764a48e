package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/cryptox"
	"github.com/dmitrijs2005/mindcanvas/internal/filex"
	"github.com/dmitrijs2005/mindcanvas/internal/keystore"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/metrics"
)

// Snapshotter receives the decrypted previous document before each
// overwrite. backup.Manager implements it.
type Snapshotter interface {
	Write(ctx context.Context, snapshot []byte) (string, error)
}

type FileStore struct {
	path    string
	keys    keystore.KeyStore
	backups Snapshotter
	log     logging.Logger
	rec     metrics.Recorder
}

// NewFileStore returns a store at path. backups may be nil, in which case
// saves are not preceded by a snapshot. rec may be nil.
func NewFileStore(path string, keys keystore.KeyStore, backups Snapshotter, log logging.Logger, rec metrics.Recorder) *FileStore {
	if rec == nil {
		rec = (*metrics.Metrics)(nil)
	}
	return &FileStore{path: path, keys: keys, backups: backups, log: log, rec: rec}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Exists(ctx context.Context) (bool, error) {
	ok, err := filex.Exists(s.path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return ok, nil
}

func (s *FileStore) Load(ctx context.Context, v any) (err error) {
	defer func() { s.rec.ObserveStore("load", err) }()

	plain, err := s.readPlain(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return parseErr(err)
	}
	return nil
}

func (s *FileStore) readPlain(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	return s.decode(ctx, raw)
}

func (s *FileStore) decode(ctx context.Context, raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, []byte(Marker)) {
		s.log.Debug(ctx, "reading legacy plaintext document", "path", s.path)
		return raw, nil
	}

	key, err := s.keys.LoadKey(ctx)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	plain, err := cryptox.Open(key, raw[len(Marker):])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryption, err)
	}
	return plain, nil
}

// Save snapshots the current document (if any) and then atomically
// replaces it with the encrypted, indented JSON of v. If the snapshot
// cannot be taken the file is left untouched and the error wraps
// common.ErrBackup.
func (s *FileStore) Save(ctx context.Context, v any) (err error) {
	defer func() { s.rec.ObserveStore("save", err) }()

	if err := s.backupCurrent(ctx); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return parseErr(err)
	}

	key, err := s.keys.LoadKey(ctx)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	sealed, err := cryptox.Seal(key, data)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}

	out := make([]byte, 0, len(Marker)+len(sealed))
	out = append(out, Marker...)
	out = append(out, sealed...)

	if err := filex.WriteFileAtomic(s.path, out, 0o600); err != nil {
		return fmt.Errorf("%w: %w", common.ErrIO, err)
	}
	s.log.Debug(ctx, "document saved", "path", s.path, "bytes", len(data))
	return nil
}

func (s *FileStore) backupCurrent(ctx context.Context) error {
	if s.backups == nil {
		return nil
	}

	prev, err := s.readPlain(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read previous document: %w", common.ErrBackup, err)
	}

	if _, err := s.backups.Write(ctx, prev); err != nil {
		s.log.Error(ctx, "backup failed, document not saved", "path", s.path, "error", err)
		if errors.Is(err, common.ErrBackup) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrBackup, err)
	}
	return nil
}
