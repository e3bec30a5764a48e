package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mindcanvas/internal/flagx"
	"github.com/dmitrijs2005/mindcanvas/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields
// distinguish "absent" from zero values so a partial file only overrides
// what it names. Durations accept "24h" or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	JournalPath       *string         `json:"journal_path"`
	BackupDir         *string         `json:"backup_dir"`
	KeyPath           *string         `json:"key_path"`
	CredentialsPath   *string         `json:"credentials_path"`
	SecretKey         *string         `json:"secret_key"`
	SessionTTL        *timex.Duration `json:"session_ttl"`
	SaltLength        *int            `json:"salt_length"`
	AllowDefaultAdmin *bool           `json:"allow_default_admin"`
	LogPath           *string         `json:"log_path"`
	LogLevel          *string         `json:"log_level"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	S3RootUser        *string         `json:"s3_root_user"`
	S3RootPassword    *string         `json:"s3_root_password"`
	S3Prefix          *string         `json:"s3_prefix"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays cfg with the JSON file given by -c or -config.
// Without either flag nothing is loaded. An unreadable file or invalid JSON
// panics: a half-applied configuration is worse than not starting.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.HTTPAddr, jc.HTTPAddr)
	setIf(&cfg.JournalPath, jc.JournalPath)
	setIf(&cfg.BackupDir, jc.BackupDir)
	setIf(&cfg.KeyPath, jc.KeyPath)
	setIf(&cfg.CredentialsPath, jc.CredentialsPath)
	setIf(&cfg.SecretKey, jc.SecretKey)
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	setIf(&cfg.SaltLength, jc.SaltLength)
	setIf(&cfg.AllowDefaultAdmin, jc.AllowDefaultAdmin)
	setIf(&cfg.LogPath, jc.LogPath)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.S3Bucket, jc.S3Bucket)
	setIf(&cfg.S3Region, jc.S3Region)
	setIf(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setIf(&cfg.S3RootUser, jc.S3RootUser)
	setIf(&cfg.S3RootPassword, jc.S3RootPassword)
	setIf(&cfg.S3Prefix, jc.S3Prefix)
}
