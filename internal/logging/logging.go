// Package logging builds the process logger on charmbracelet/log and defines the
// narrow Logger interface the rest of the tree depends on.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// Logger is the leveled key-value logger injected into handlers and the server.
// *log.Logger satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

var _ Logger = (*log.Logger)(nil)

// Options holds configuration for the process logger.
type Options struct {
	Level           string
	Format          string // auto|text|json|logfmt
	Prefix          string
	ReportTimestamp bool
	Output          io.Writer
}

// DefaultOptions returns info-level logging to stderr with automatic formatting.
func DefaultOptions() Options {
	return Options{
		Level:           "info",
		Format:          "auto",
		Prefix:          "todoboard",
		ReportTimestamp: true,
		Output:          os.Stderr,
	}
}

// New creates a logger from opts.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format, out),
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// ParseLevel maps a level name to a log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter maps a format name to a log.Formatter. "auto" (or empty) picks
// text for terminals and JSON otherwise.
func ParseFormatter(format string, out io.Writer) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	case "text":
		return log.TextFormatter
	default:
		if IsTerminal(out) {
			return log.TextFormatter
		}
		return log.JSONFormatter
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type noopLogger struct{}

func (noopLogger) Debug(interface{}, ...interface{}) {}
func (noopLogger) Info(interface{}, ...interface{})  {}
func (noopLogger) Warn(interface{}, ...interface{})  {}
func (noopLogger) Error(interface{}, ...interface{}) {}

// Noop returns a Logger that discards everything.
func Noop() Logger { return noopLogger{} }

// OrNoop returns l, or a discarding logger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return Noop()
	}
	return l
}
