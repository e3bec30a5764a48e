// Package config handles configuration for the MindCanvas server and admin
// CLI: built-in defaults, an optional JSON file overlay and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"
)

// MinSaltLength is the smallest accepted password salt, in bytes.
const MinSaltLength = 16

// Config holds runtime settings. It is built once at process start and
// passed to each component's constructor.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - JournalPath / BackupDir / KeyPath / CredentialsPath: on-disk layout.
//   - SecretKey: HMAC secret for session tokens. When empty it is derived
//     from the journal key.
//   - SessionTTL: lifetime of an issued session token.
//   - SaltLength: random bytes per password salt.
//   - AllowDefaultAdmin: permit the built-in admin/password seed when no
//     credential file exists. Insecure; intended for local demos only.
//   - LogPath / LogLevel: log destination (empty = stdout) and threshold.
//   - S3*: optional off-site mirror for backup files. Disabled when
//     S3Bucket is empty.
type Config struct {
	HTTPAddr          string
	JournalPath       string
	BackupDir         string
	KeyPath           string
	CredentialsPath   string
	SecretKey         string
	SessionTTL        time.Duration
	SaltLength        int
	AllowDefaultAdmin bool
	LogPath           string
	LogLevel          string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	S3RootUser        string
	S3RootPassword    string
	S3Prefix          string
}

// LoadDefaults populates Config with the defaults of a local install.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.JournalPath = "journal_entries.json"
	c.BackupDir = "backups"
	c.KeyPath = ".journalkey"
	c.CredentialsPath = "admin.json"
	c.SecretKey = ""
	c.SessionTTL = 24 * time.Hour
	c.SaltLength = 16
	c.AllowDefaultAdmin = false
	c.LogPath = ""
	c.LogLevel = "info"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.S3Prefix = "mindcanvas/backups/"
}

// MirrorEnabled reports whether backups should be copied to S3.
func (c *Config) MirrorEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config (if any), then command-line flags. Later sources win.
func LoadConfig() *Config {
	return LoadConfigFromArgs(os.Args[1:])
}

// LoadConfigFromArgs is LoadConfig over an explicit argument list.
func LoadConfigFromArgs(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings that would leave the service unusable or weaken
// stored credentials.
func (c *Config) Validate() error {
	if c.SaltLength < MinSaltLength {
		return fmt.Errorf("salt length must be at least %d bytes, got %d", MinSaltLength, c.SaltLength)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session lifetime must be positive, got %s", c.SessionTTL)
	}
	return nil
}
