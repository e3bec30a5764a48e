package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/config"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.JournalPath = filepath.Join(dir, "journal_entries.json")
	cfg.BackupDir = filepath.Join(dir, "backups")
	cfg.KeyPath = filepath.Join(dir, ".journalkey")
	cfg.CredentialsPath = filepath.Join(dir, "admin.json")
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, input string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := newApp(context.Background(), cfg, logging.NewNop(), strings.NewReader(input), &out)
	require.NoError(t, err)
	return a, &out
}

func TestInit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	stubPasswords(t, "s3cret", "s3cret")
	a, out := newTestApp(t, cfg, "alice\n")
	require.NoError(t, a.Run(ctx, []string{"init"}))

	assert.FileExists(t, cfg.KeyPath)
	assert.FileExists(t, cfg.JournalPath)
	assert.Contains(t, out.String(), "Admin credentials saved.")
	assert.True(t, a.components.Credentials.VerifyLogin(ctx, "alice", "s3cret"))

	t.Run("second init refuses", func(t *testing.T) {
		a, _ := newTestApp(t, cfg, "")
		assert.ErrorIs(t, a.Run(ctx, []string{"init"}), ErrAlreadyInit)
		assert.True(t, a.components.Credentials.VerifyLogin(ctx, "alice", "s3cret"))
	})
}

func TestInit_DefaultUsernameAndRequiredPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("empty username means admin", func(t *testing.T) {
		cfg := testConfig(t)
		stubPasswords(t, "pw", "pw")
		a, _ := newTestApp(t, cfg, "\n")
		require.NoError(t, a.Run(ctx, []string{"init"}))
		assert.True(t, a.components.Credentials.VerifyLogin(ctx, "admin", "pw"))
	})

	t.Run("empty password rejected", func(t *testing.T) {
		cfg := testConfig(t)
		stubPasswords(t, "")
		a, _ := newTestApp(t, cfg, "bob\n")
		assert.ErrorIs(t, a.Run(ctx, []string{"init"}), common.ErrValidation)
	})
}

func TestPasswd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	stubPasswords(t, "old", "old")
	a, _ := newTestApp(t, cfg, "admin\n")
	require.NoError(t, a.Run(ctx, []string{"init"}))

	t.Run("password only", func(t *testing.T) {
		stubPasswords(t, "new", "new")
		a, out := newTestApp(t, cfg, "\n")
		require.NoError(t, a.Run(ctx, []string{"passwd"}))
		assert.Contains(t, out.String(), "updated")
		assert.False(t, a.components.Credentials.VerifyLogin(ctx, "admin", "old"))
		assert.True(t, a.components.Credentials.VerifyLogin(ctx, "admin", "new"))
	})

	t.Run("username only", func(t *testing.T) {
		stubPasswords(t, "")
		a, _ := newTestApp(t, cfg, "root\n")
		require.NoError(t, a.Run(ctx, []string{"passwd"}))
		assert.True(t, a.components.Credentials.VerifyLogin(ctx, "root", "new"))
	})

	t.Run("nothing", func(t *testing.T) {
		stubPasswords(t, "")
		a, out := newTestApp(t, cfg, "\n")
		require.NoError(t, a.Run(ctx, []string{"passwd"}))
		assert.Contains(t, out.String(), "Nothing changed.")
	})

	t.Run("mismatch", func(t *testing.T) {
		stubPasswords(t, "a", "b")
		a, _ := newTestApp(t, cfg, "\n")
		assert.ErrorIs(t, a.Run(ctx, []string{"passwd"}), ErrPasswordMismatch)
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, out := newTestApp(t, cfg, "")
	require.NoError(t, a.components.EnsureFiles(ctx))
	_, err := a.components.Entries.Add(ctx, "Hello", "World")
	require.NoError(t, err)

	t.Run("stdout", func(t *testing.T) {
		out.Reset()
		require.NoError(t, a.Run(ctx, []string{"export"}))
		var doc models.Document
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		require.Len(t, doc.Entries, 1)
		assert.Equal(t, "Hello", doc.Entries[0].Title)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.json")
		require.NoError(t, a.Run(ctx, []string{"export", "-o", path}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc models.Document
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Len(t, doc.Entries, 1)
	})
}

func TestBackups(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, out := newTestApp(t, cfg, "")
	require.NoError(t, a.Run(ctx, []string{"backups"}))
	assert.Contains(t, out.String(), "No backups")

	require.NoError(t, a.components.EnsureFiles(ctx))
	_, err := a.components.Entries.Add(ctx, "one", "")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, a.Run(ctx, []string{"backups"}))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "backup_")
}

func TestHelpAndUnknown(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t, testConfig(t), "")

	require.NoError(t, a.Run(ctx, nil))
	assert.Contains(t, out.String(), "Usage: mindcanvas-admin")

	assert.ErrorIs(t, a.Run(ctx, []string{"frobnicate"}), ErrUnknownCommand)
}
