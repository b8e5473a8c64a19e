// Package utils holds small helpers shared across kcwrap packages.
package utils

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "KCWRAP_LOG_LEVEL"

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level           string
	Output          io.Writer
	Prefix          string
	ReportTimestamp bool
}

// InitLogger builds a charmbracelet logger. Output defaults to stderr so
// the wrapped tool's stdout stays clean for pipes.
func InitLogger(opts LoggerOptions) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ValidLogLevel reports whether s names a level parseLevel understands.
func ValidLogLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}
