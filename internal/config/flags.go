package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/flagx"
)

var knownFlags = []string{
	"-a", "-j", "-b", "-k", "-m", "-s", "-t", "-salt", "-insecure-default-admin",
	"-l", "-log-level",
	"-s3-bucket", "-s3-region", "-s3-endpoint", "-s3-user", "-s3-password", "-s3-prefix",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    HTTP bind address (e.g. ":5000")
//	-j string    journal document path
//	-b string    backup directory
//	-k string    journal key file
//	-m string    admin credential file
//	-s string    session token secret
//	-t int       session lifetime, minutes
//	-salt int    salt length, bytes
//	-insecure-default-admin  allow the built-in admin seed
//	-l string    log file (empty = stdout)
//	-log-level string
//	-s3-bucket, -s3-region, -s3-endpoint, -s3-user, -s3-password, -s3-prefix
//
// Arguments are filtered with flagx.FilterArgs first, so subcommands and
// their own flags (as used by the admin CLI) pass through untouched.
func parseFlags(cfg *Config, args []string) {
	filtered := flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.JournalPath, "j", cfg.JournalPath, "journal document path")
	fs.StringVar(&cfg.BackupDir, "b", cfg.BackupDir, "backup directory")
	fs.StringVar(&cfg.KeyPath, "k", cfg.KeyPath, "journal key file")
	fs.StringVar(&cfg.CredentialsPath, "m", cfg.CredentialsPath, "admin credential file")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "session token secret")
	sessionTTL := fs.Int("t", int(cfg.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.IntVar(&cfg.SaltLength, "salt", cfg.SaltLength, "password salt length in bytes")
	fs.BoolVar(&cfg.AllowDefaultAdmin, "insecure-default-admin", cfg.AllowDefaultAdmin, "allow built-in admin credentials")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "log file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket for backup mirror")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "s3-endpoint", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3RootUser, "s3-user", cfg.S3RootUser, "S3 access key")
	fs.StringVar(&cfg.S3RootPassword, "s3-password", cfg.S3RootPassword, "S3 secret key")
	fs.StringVar(&cfg.S3Prefix, "s3-prefix", cfg.S3Prefix, "S3 key prefix for backups")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.SessionTTL = time.Duration(*sessionTTL) * time.Minute
		}
	})
}
