package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Equal(t, "journal_entries.json", c.JournalPath)
	assert.Equal(t, "backups", c.BackupDir)
	assert.Equal(t, ".journalkey", c.KeyPath)
	assert.Equal(t, "admin.json", c.CredentialsPath)
	assert.Empty(t, c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, 16, c.SaltLength)
	assert.False(t, c.AllowDefaultAdmin)
	assert.Empty(t, c.LogPath)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "mindcanvas/backups/", c.S3Prefix)
	assert.False(t, c.MirrorEnabled())
}

func TestLoadConfigFromArgs_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http_addr":":7000","journal_path":"j.json","session_ttl":"2h"}`), 0o600))

	cfg := LoadConfigFromArgs([]string{"-c", path, "-a", ":8000"})

	require.NotNil(t, cfg)
	assert.Equal(t, ":8000", cfg.HTTPAddr, "flags override the file")
	assert.Equal(t, "j.json", cfg.JournalPath, "file overrides defaults")
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL, "unset -t keeps the file value")
	assert.Equal(t, "backups", cfg.BackupDir, "untouched fields keep defaults")
}

func TestLoadConfigFromArgs_IgnoresSubcommands(t *testing.T) {
	cfg := LoadConfigFromArgs([]string{"export", "-o", "out.json", "-k", "custom.key"})

	assert.Equal(t, "custom.key", cfg.KeyPath)
	assert.Equal(t, "journal_entries.json", cfg.JournalPath)
}

func TestMirrorEnabled(t *testing.T) {
	c := Config{S3Bucket: "journal"}
	assert.True(t, c.MirrorEnabled())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.LoadDefaults()
		return c
	}

	c := valid()
	require.NoError(t, c.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero salt", mutate: func(c *Config) { c.SaltLength = 0 }},
		{name: "negative salt", mutate: func(c *Config) { c.SaltLength = -1 }},
		{name: "short salt", mutate: func(c *Config) { c.SaltLength = MinSaltLength - 1 }},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }},
		{name: "negative session ttl", mutate: func(c *Config) { c.SessionTTL = -time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfigFromArgs_RejectsInvalid(t *testing.T) {
	assert.Panics(t, func() { LoadConfigFromArgs([]string{"-salt", "0"}) })
	assert.Panics(t, func() { LoadConfigFromArgs([]string{"-salt=-1"}) })
	assert.Panics(t, func() { LoadConfigFromArgs([]string{"-t", "0"}) })

	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"salt_length": 0}`), 0o600))
	assert.Panics(t, func() { LoadConfigFromArgs([]string{"-c", path}) })

	require.NoError(t, os.WriteFile(path, []byte(`{"session_ttl": "-1h"}`), 0o600))
	assert.Panics(t, func() { LoadConfigFromArgs([]string{"-c", path}) })
}
