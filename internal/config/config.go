// Package config loads todoboard settings from defaults, an optional TOML file,
// environment variables and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Blob drivers.
const (
	BlobMemory     = "memory"
	BlobFilesystem = "fs"
	BlobS3         = "s3"
)

// Defaults.
const (
	DefaultPath              = "todoboard.toml"
	DefaultAddr              = ":3000"
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultBlobRoot          = "./blobdata"
	DefaultS3Region          = "us-east-1"
	DefaultMetricsPath       = "/metrics"
)

// Config holds the full configuration for todoboard.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	Blob    Blob    `toml:"blob"`
	Log     Log     `toml:"log"`
	Metrics Metrics `toml:"metrics"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr              string   `toml:"addr"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
}

// Storage selects the todo store backend (memory|sqlite).
type Storage struct {
	Driver string `toml:"driver"`
}

// Blob configures where board exports are written.
type Blob struct {
	Driver string `toml:"driver"` // memory|fs|s3
	FSRoot string `toml:"fs_root"`
	S3     S3     `toml:"s3"`
}

// S3 holds bucket settings for the s3 blob driver. Credentials come from the
// default AWS chain.
type S3 struct {
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"` // optional, for MinIO
	PathStyle bool   `toml:"path_style"`
}

// Log configures the process logger.
type Log struct {
	Level  string `toml:"level"`  // debug|info|warn|error
	Format string `toml:"format"` // auto|text|json|logfmt
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Duration decodes TOML strings such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              DefaultAddr,
			ReadHeaderTimeout: Duration{DefaultReadHeaderTimeout},
			ShutdownTimeout:   Duration{DefaultShutdownTimeout},
		},
		Storage: Storage{Driver: StorageMemory},
		Blob: Blob{
			Driver: BlobMemory,
			FSRoot: DefaultBlobRoot,
			S3:     S3{Region: DefaultS3Region},
		},
		Log:     Log{Level: "info", Format: "auto"},
		Metrics: Metrics{Enabled: true, Path: DefaultMetricsPath},
	}
}

// LookupFunc resolves an environment variable; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// Load builds a configuration from defaults, the TOML file at path and the
// environment. A missing file is ignored unless required is set.
func Load(path string, required bool, lookup LookupFunc) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	if err := cfg.loadFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || required {
			return Config{}, err
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("decode %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = parsed
		return nil
	}

	// PORT wins over the file but loses to an explicit TODOBOARD_ADDR.
	if port, ok := lookup("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	str("TODOBOARD_ADDR", &c.Server.Addr)
	str("TODOBOARD_STORAGE_DRIVER", &c.Storage.Driver)
	str("TODOBOARD_BLOB_DRIVER", &c.Blob.Driver)
	str("TODOBOARD_BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("TODOBOARD_BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("TODOBOARD_BLOB_S3_REGION", &c.Blob.S3.Region)
	str("TODOBOARD_BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("TODOBOARD_LOG_LEVEL", &c.Log.Level)
	str("TODOBOARD_LOG_FORMAT", &c.Log.Format)
	str("TODOBOARD_METRICS_PATH", &c.Metrics.Path)
	if err := boolean("TODOBOARD_BLOB_S3_PATH_STYLE", &c.Blob.S3.PathStyle); err != nil {
		return err
	}
	return boolean("TODOBOARD_METRICS_ENABLED", &c.Metrics.Enabled)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case BlobMemory:
	case BlobFilesystem:
		if c.Blob.FSRoot == "" {
			return errors.New("blob.fs_root is required for the fs driver")
		}
	case BlobS3:
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Metrics.Enabled {
		if err := validateMetricsPath(c.Metrics.Path); err != nil {
			return err
		}
	}
	return nil
}

// validateMetricsPath keeps the metrics route off the application routes.
func validateMetricsPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("metrics.path must start with '/': %q", path)
	}
	if strings.ContainsAny(path, "{} \t") {
		return fmt.Errorf("metrics.path must be a literal path: %q", path)
	}
	if path == "/" || path == "/todos" || strings.HasPrefix(path, "/todos/") || strings.HasPrefix(path, "/static/") {
		return fmt.Errorf("metrics.path %q collides with an application route", path)
	}
	return nil
}
