package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the serve command.
const (
	FlagAddr      = "addr"
	FlagStorage   = "storage"
	FlagBlob      = "blob"
	FlagBlobRoot  = "blob-root"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagNoMetrics = "no-metrics"
)

// RegisterFlags defines the server override flags on fs. Defaults are shown for
// help output only; ApplyFlags copies just the flags the user set.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagAddr, d.Server.Addr, "listen address")
	fs.String(FlagStorage, d.Storage.Driver, "todo store backend (memory|sqlite)")
	fs.String(FlagBlob, d.Blob.Driver, "export blob backend (memory|fs|s3)")
	fs.String(FlagBlobRoot, d.Blob.FSRoot, "directory for the fs blob backend")
	fs.String(FlagLogLevel, d.Log.Level, "log level (debug|info|warn|error)")
	fs.String(FlagLogFormat, d.Log.Format, "log format (auto|text|json|logfmt)")
	fs.Bool(FlagNoMetrics, false, "disable the Prometheus endpoint")
}

// ApplyFlags overrides cfg with every flag explicitly set on fs.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	targets := map[string]*string{
		FlagAddr:      &cfg.Server.Addr,
		FlagStorage:   &cfg.Storage.Driver,
		FlagBlob:      &cfg.Blob.Driver,
		FlagBlobRoot:  &cfg.Blob.FSRoot,
		FlagLogLevel:  &cfg.Log.Level,
		FlagLogFormat: &cfg.Log.Format,
	}
	for name, dst := range targets {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if fs.Lookup(FlagNoMetrics) != nil && fs.Changed(FlagNoMetrics) {
		off, err := fs.GetBool(FlagNoMetrics)
		if err != nil {
			return err
		}
		cfg.Metrics.Enabled = !off
	}
	return nil
}
