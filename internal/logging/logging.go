// Package logging sets up the one logr.Logger aliceserver threads through
// every component, replacing the bracketed-tag log.Printf convention
// ("[Debugger] ...", "[Hub] ...") with named sub-loggers
// (logger.WithName("debugger"), .WithName("session"), ...).
package logging

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Options configures the root logger.
type Options struct {
	Enabled bool
	Level   string // "debug", "info", "warn", "error"
	Output  io.Writer // defaults to os.Stderr; never stdout, which may carry the wire protocol
}

// New builds the root logr.Logger. When Enabled is false, it returns
// logr.Discard() so call sites never need a nil check.
func New(opts Options) logr.Logger {
	if !opts.Enabled {
		return logr.Discard()
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	verbosity := levelToVerbosity(opts.Level)
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			io.WriteString(out, prefix+": "+args+"\n")
		} else {
			io.WriteString(out, args+"\n")
		}
	}, funcr.Options{Verbosity: verbosity})
}

// levelToVerbosity maps a human log level to logr's V-level scale, where
// higher numbers are more verbose and Info calls at V>0 are filtered out
// below that verbosity by funcr.
func levelToVerbosity(level string) int {
	switch level {
	case "debug":
		return 1
	case "warn", "error":
		return 0
	default:
		return 0
	}
}
