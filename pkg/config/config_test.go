package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: test-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, ":8080", cfg.Server.ListenAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "filesystem", cfg.Blob.Type)
	assert.Equal(t, "/var/lib/stardust/blobs", cfg.Blob.Filesystem["path"])
	assert.Equal(t, "memory", cfg.Metadata.Type)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Storage.SniffMediaType)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.GC.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.GC.Interval)
	assert.Equal(t, uint(0), cfg.Server.RateLimitRPS)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
server:
  listen_address: ":9090"
  shutdown_timeout: 5s
  rate_limit_rps: 100
  rate_limit_burst: 200
blob:
  type: s3
  s3:
    bucket: my-bucket
    region: eu-west-1
    key_prefix: blobs/
metadata:
  type: badger
  badger:
    db_path: /data/meta
auth:
  jwt_secret: s3cret
storage:
  sniff_media_type: true
metrics:
  enabled: true
gc:
  enabled: true
  interval: 1h
  dry_run: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9090", cfg.Server.ListenAddress)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "s3", cfg.Blob.Type)
	assert.Equal(t, "my-bucket", cfg.Blob.S3["bucket"])
	assert.Equal(t, "badger", cfg.Metadata.Type)
	assert.Equal(t, "/data/meta", cfg.Metadata.Badger["db_path"])
	assert.True(t, cfg.Storage.SniffMediaType)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, uint(100), cfg.Server.RateLimitRPS)
	assert.Equal(t, uint(200), cfg.Server.RateLimitBurst)
	assert.True(t, cfg.GC.Enabled)
	assert.Equal(t, time.Hour, cfg.GC.Interval)
	assert.True(t, cfg.GC.DryRun)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadRejectsUnknownStoreTypes(t *testing.T) {
	path := writeConfigFile(t, `
blob:
  type: carrier-pigeon
auth:
  jwt_secret: x
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateCustomRules(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Auth.JWTSecret = "x"
		ApplyDefaults(cfg)
		return cfg
	}

	t.Run("filesystem requires path", func(t *testing.T) {
		cfg := base()
		cfg.Blob.Filesystem["path"] = ""
		assert.Error(t, Validate(cfg))
	})

	t.Run("s3 requires bucket and region", func(t *testing.T) {
		cfg := base()
		cfg.Blob.Type = "s3"
		cfg.Blob.S3 = map[string]any{"bucket": "b"}
		assert.Error(t, Validate(cfg))

		cfg.Blob.S3["region"] = "eu-west-1"
		assert.NoError(t, Validate(cfg))
	})

	t.Run("badger requires db_path", func(t *testing.T) {
		cfg := base()
		cfg.Metadata.Type = "badger"
		assert.Error(t, Validate(cfg))

		cfg.Metadata.Badger["db_path"] = "/data"
		assert.NoError(t, Validate(cfg))
	})
}
