package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/backup"
	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/cryptox"
	"github.com/dmitrijs2005/mindcanvas/internal/keystore"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir     string
	path    string
	keys    *keystore.FileKeyStore
	backups *backup.Manager
	store   *FileStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	keys := keystore.NewFileKeyStore(filepath.Join(dir, ".journalkey"))
	_, err := keys.EnsureKeyExists(context.Background())
	require.NoError(t, err)

	backups := backup.NewManager(filepath.Join(dir, "backups"), logging.NewNop())
	path := filepath.Join(dir, "journal_entries.json")
	return &fixture{
		dir:     dir,
		path:    path,
		keys:    keys,
		backups: backups,
		store:   NewFileStore(path, keys, backups, logging.NewNop(), nil),
	}
}

func (f *fixture) backupFiles(t *testing.T) []backup.Info {
	t.Helper()
	list, err := f.backups.List()
	require.NoError(t, err)
	return list
}

func sampleDoc() *models.Document {
	return &models.Document{Entries: []models.Entry{
		{
			ID:           "1f0c7c1e-7f7a-4a43-9c55-2b7a6f1f0a01",
			Title:        "Hello",
			DateTimeUTC:  time.Date(2023, 10, 3, 12, 0, 0, 0, time.UTC),
			Text:         "World",
			MediaContent: []string{"a.png"},
		},
	}}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	want := sampleDoc()
	require.NoError(t, f.store.Save(ctx, want))

	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte(Marker)))
	assert.NotContains(t, string(raw), "Hello", "content must be encrypted")

	fi, err := os.Stat(f.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	var got models.Document
	require.NoError(t, f.store.Load(ctx, &got))
	assert.Equal(t, want.Entries[0].ID, got.Entries[0].ID)
	assert.Equal(t, want.Entries[0].Title, got.Entries[0].Title)
	assert.True(t, want.Entries[0].DateTimeUTC.Equal(got.Entries[0].DateTimeUTC))
	assert.Equal(t, want.Entries[0].MediaContent, got.Entries[0].MediaContent)
}

func TestFileStore_RoundTrip_ArbitraryJSON(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	want := map[string]any{"entries": []any{}, "n": 1.5, "nested": map[string]any{"ok": true}}
	require.NoError(t, f.store.Save(ctx, want))

	var got map[string]any
	require.NoError(t, f.store.Load(ctx, &got))
	assert.Equal(t, want, got)
}

func TestFileStore_LegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	legacy := `{"entries": [{"title": "Old", "datetime_utc": "2023-10-03T12:00:00+00:00", "text": "from before", "media_content": []}], "encrypted": false}`
	require.NoError(t, os.WriteFile(f.path, []byte(legacy), 0o600))

	doc, err := LoadDocument(ctx, f.store)
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, "Old", doc.Entries[0].Title)
	assert.Empty(t, doc.Entries[0].ID)

	require.NoError(t, f.store.Save(ctx, doc))
	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte(Marker)), "next save encrypts")

	list := f.backupFiles(t)
	require.Len(t, list, 1)
	snap, err := f.backups.Read(list[0].Name)
	require.NoError(t, err)
	assert.Contains(t, string(snap), "from before")
}

func TestFileStore_Backups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.Save(ctx, models.NewDocument()))
	assert.Empty(t, f.backupFiles(t), "no backup when nothing existed")

	first := sampleDoc()
	require.NoError(t, f.store.Save(ctx, first))
	list := f.backupFiles(t)
	require.Len(t, list, 1)
	snap, err := f.backups.Read(list[0].Name)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[]}`, string(snap))

	require.NoError(t, f.store.Save(ctx, models.NewDocument()))
	list = f.backupFiles(t)
	require.Len(t, list, 2, "exactly one new backup per save")

	snap, err = f.backups.Read(list[0].Name)
	require.NoError(t, err)
	var prev models.Document
	require.NoError(t, json.Unmarshal(snap, &prev))
	require.Len(t, prev.Entries, 1)
	assert.Equal(t, "Hello", prev.Entries[0].Title, "backup holds the decrypted previous document")
}

type failingSnapshotter struct{}

func (failingSnapshotter) Write(ctx context.Context, snapshot []byte) (string, error) {
	return "", errors.New("disk full")
}

func TestFileStore_BackupFailureAbortsSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Save(ctx, sampleDoc()))
	before, err := os.ReadFile(f.path)
	require.NoError(t, err)

	s := NewFileStore(f.path, f.keys, failingSnapshotter{}, logging.NewNop(), nil)
	err = s.Save(ctx, models.NewDocument())
	require.ErrorIs(t, err, common.ErrBackup)

	after, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "previous document untouched")
}

func TestFileStore_WrongKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Save(ctx, sampleDoc()))

	other, err := cryptox.NewKey()
	require.NoError(t, err)
	s := NewFileStore(f.path, keystore.StaticKeyStore{Key: other}, nil, logging.NewNop(), nil)

	var doc models.Document
	err = s.Load(ctx, &doc)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestFileStore_CorruptCiphertext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Save(ctx, sampleDoc()))

	raw, err := os.ReadFile(f.path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	require.NoError(t, os.WriteFile(f.path, raw, 0o600))

	var doc models.Document
	assert.ErrorIs(t, f.store.Load(ctx, &doc), common.ErrDecryption)
}

func TestFileStore_BadJSON(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("plaintext", func(t *testing.T) {
		require.NoError(t, os.WriteFile(f.path, []byte("{not json"), 0o600))
		var doc models.Document
		assert.ErrorIs(t, f.store.Load(ctx, &doc), common.ErrParse)
	})

	t.Run("encrypted", func(t *testing.T) {
		key, err := f.keys.LoadKey(ctx)
		require.NoError(t, err)
		sealed, err := cryptox.Seal(key, []byte("{not json"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(f.path, append([]byte(Marker), sealed...), 0o600))

		var doc models.Document
		assert.ErrorIs(t, f.store.Load(ctx, &doc), common.ErrParse)
	})
}

func TestFileStore_Missing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var doc models.Document
	assert.ErrorIs(t, f.store.Load(ctx, &doc), common.ErrorNotFound)

	ok, err := f.store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := LoadDocument(ctx, f.store)
	require.NoError(t, err)
	assert.Empty(t, loaded.Entries)
}

func TestFileStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "j.json"), keystore.NewFileKeyStore(filepath.Join(dir, "nokey")), nil, logging.NewNop(), nil)

	assert.ErrorIs(t, s.Save(ctx, models.NewDocument()), common.ErrIO)
}

func TestEnsureExists_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := EnsureExists(ctx, f.store)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, f.store.Save(ctx, sampleDoc()))
	before, err := os.ReadFile(f.path)
	require.NoError(t, err)

	created, err = EnsureExists(ctx, f.store)
	require.NoError(t, err)
	assert.False(t, created)

	after, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCreateBlank(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, CreateBlank(ctx, f.store))

	var doc map[string]any
	require.NoError(t, f.store.Load(ctx, &doc))
	assert.Equal(t, map[string]any{"entries": []any{}}, doc)
}
