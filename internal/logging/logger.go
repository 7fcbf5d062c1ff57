// Package logging builds the hclog loggers shared by every component.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Name is the root logger name; components derive named sub-loggers from it.
const Name = "ape-plugins"

// Options configures the root logger.
type Options struct {
	// Output defaults to os.Stderr.
	Output io.Writer

	// Level is an hclog level name such as "debug" or "warn".
	// Verbose and Quiet take precedence over it.
	Level string

	Verbose bool
	Quiet   bool

	// JSON switches to hclog's JSON formatter.
	JSON bool
}

// New creates the root logger.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:            Name,
		Output:          out,
		Level:           level(opts),
		JSONFormat:      opts.JSON,
		DisableTime:     !opts.Verbose,
		IncludeLocation: false,
	})
}

// Discard returns a logger that drops everything. Used by tests and as the
// fallback when a component is built without a logger.
func Discard() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   Name,
		Output: io.Discard,
		Level:  hclog.Off,
	})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l hclog.Logger) hclog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Success logs a completed modification. hclog has no success level, so the
// outcome is carried as a field.
func Success(l hclog.Logger, msg string, args ...any) {
	l.Info(msg, append([]any{"result", "success"}, args...)...)
}

func level(opts Options) hclog.Level {
	switch {
	case opts.Verbose:
		return hclog.Debug
	case opts.Quiet:
		return hclog.Error
	}

	if opts.Level != "" {
		if lvl := hclog.LevelFromString(strings.ToLower(opts.Level)); lvl != hclog.NoLevel {
			return lvl
		}
	}

	return hclog.Info
}
