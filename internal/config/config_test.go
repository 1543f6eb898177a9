package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todoboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), false, env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRequiredFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), true, env(nil))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
[server]
addr = "127.0.0.1:8080"
read_header_timeout = "2s"
shutdown_timeout = "30s"

[storage]
driver = "sqlite"

[blob]
driver = "s3"

[blob.s3]
bucket = "exports"
endpoint = "http://localhost:9000"
path_style = true

[log]
level = "debug"
format = "json"

[metrics]
enabled = false
`)
	cfg, err := Load(path, true, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadHeaderTimeout.Duration)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, BlobS3, cfg.Blob.Driver)
	assert.Equal(t, "exports", cfg.Blob.S3.Bucket)
	assert.Equal(t, DefaultS3Region, cfg.Blob.S3.Region)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "[server]\nport = 3000\n")
	_, err := Load(path, true, env(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeFile(t, "[server]\nshutdown_timeout = \"soon\"\n")
	_, err := Load(path, true, env(nil))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "[storage]\ndriver = \"sqlite\"\n")
	cfg, err := Load(path, true, env(map[string]string{
		"TODOBOARD_STORAGE_DRIVER":     "memory",
		"TODOBOARD_BLOB_DRIVER":        "fs",
		"TODOBOARD_BLOB_FS_ROOT":       "/tmp/exports",
		"TODOBOARD_BLOB_S3_PATH_STYLE": "true",
		"TODOBOARD_METRICS_ENABLED":    "false",
		"TODOBOARD_LOG_FORMAT":         "logfmt",
	}))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, BlobFilesystem, cfg.Blob.Driver)
	assert.Equal(t, "/tmp/exports", cfg.Blob.FSRoot)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "logfmt", cfg.Log.Format)
}

func TestEnvPortAndAddrPrecedence(t *testing.T) {
	cfg, err := Load("", false, env(map[string]string{"PORT": "4000"}))
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Addr)

	cfg, err = Load("", false, env(map[string]string{"PORT": "4000", "TODOBOARD_ADDR": "0.0.0.0:5000"}))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
}

func TestEnvRejectsBadBool(t *testing.T) {
	_, err := Load("", false, env(map[string]string{"TODOBOARD_METRICS_ENABLED": "maybe"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TODOBOARD_METRICS_ENABLED")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"sqlite", func(c *Config) { c.Storage.Driver = StorageSQLite }, true},
		{"empty addr", func(c *Config) { c.Server.Addr = " " }, false},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "postgres" }, false},
		{"unknown blob", func(c *Config) { c.Blob.Driver = "gcs" }, false},
		{"s3 without bucket", func(c *Config) { c.Blob.Driver = BlobS3 }, false},
		{"s3 with bucket", func(c *Config) { c.Blob.Driver = BlobS3; c.Blob.S3.Bucket = "b" }, true},
		{"fs without root", func(c *Config) { c.Blob.Driver = BlobFilesystem; c.Blob.FSRoot = "" }, false},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, false},
		{"metrics on root", func(c *Config) { c.Metrics.Path = "/" }, false},
		{"metrics on todos", func(c *Config) { c.Metrics.Path = "/todos" }, false},
		{"metrics under todos", func(c *Config) { c.Metrics.Path = "/todos/exports" }, false},
		{"metrics under static", func(c *Config) { c.Metrics.Path = "/static/m" }, false},
		{"metrics wildcard", func(c *Config) { c.Metrics.Path = "/m/{x}" }, false},
		{"metrics custom path", func(c *Config) { c.Metrics.Path = "/internal/metrics" }, true},
		{"metrics disabled ignores path", func(c *Config) { c.Metrics.Enabled = false; c.Metrics.Path = "" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--storage", "sqlite", "--no-metrics"}))

	cfg := Default()
	cfg.Server.Addr = ":9999"
	require.NoError(t, ApplyFlags(fs, &cfg))
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Server.Addr, "unset flags must not clobber loaded values")
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
