// Package bootstrap wires the storage and auth components from a Config.
// Both the server and the admin CLI build on it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mindcanvas/internal/backup"
	"github.com/dmitrijs2005/mindcanvas/internal/config"
	"github.com/dmitrijs2005/mindcanvas/internal/credentials"
	"github.com/dmitrijs2005/mindcanvas/internal/entries"
	"github.com/dmitrijs2005/mindcanvas/internal/keystore"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/metrics"
	"github.com/dmitrijs2005/mindcanvas/internal/store"
)

type Components struct {
	Config      *config.Config
	Logger      logging.Logger
	Metrics     *metrics.Metrics
	Keys        *keystore.FileKeyStore
	Backups     *backup.Manager
	Store       *store.FileStore
	Entries     *entries.Repository
	Credentials *credentials.Store
}

// New builds the components without touching the disk, apart from the S3
// mirror which needs its client configured up front.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, m *metrics.Metrics) (*Components, error) {
	keys := keystore.NewFileKeyStore(cfg.KeyPath)

	opts := []backup.Option{backup.WithRecorder(m)}
	if cfg.MirrorEnabled() {
		mirror, err := backup.NewS3Mirror(ctx, backup.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Prefix:       cfg.S3Prefix,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("backup mirror: %w", err)
		}
		opts = append(opts, backup.WithMirror(mirror))
		log.Info(ctx, "backup mirror enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}
	backups := backup.NewManager(cfg.BackupDir, log.With("module", "backup"), opts...)

	fs := store.NewFileStore(cfg.JournalPath, keys, backups, log.With("module", "store"), m)

	return &Components{
		Config:      cfg,
		Logger:      log,
		Metrics:     m,
		Keys:        keys,
		Backups:     backups,
		Store:       fs,
		Entries:     entries.NewRepository(fs, log.With("module", "entries")),
		Credentials: credentials.NewStore(cfg.CredentialsPath, cfg.SaltLength, cfg.AllowDefaultAdmin, log.With("module", "credentials")),
	}, nil
}

// EnsureFiles creates the key and a blank journal if they are missing.
// Existing files are never overwritten.
func (c *Components) EnsureFiles(ctx context.Context) error {
	created, err := c.Keys.EnsureKeyExists(ctx)
	if err != nil {
		return fmt.Errorf("ensure key: %w", err)
	}
	if created {
		c.Logger.Warn(ctx, "generated new journal key; keep a copy, losing it makes the journal unreadable", "path", c.Keys.Path())
	}

	created, err = store.EnsureExists(ctx, c.Store)
	if err != nil {
		return fmt.Errorf("ensure journal: %w", err)
	}
	if created {
		c.Logger.Info(ctx, "created blank journal", "path", c.Store.Path())
	}
	return nil
}

// Close waits for background backup mirror uploads to finish.
func (c *Components) Close() {
	c.Backups.Wait()
}
