package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

// TestLogger returns a structured logger suitable for tests.
//
// Output is discarded unless `go test -v` is used.
func TestLogger(t *testing.T) *log.Logger {
	t.Helper()

	var out io.Writer = io.Discard
	if testing.Verbose() {
		out = os.Stderr
	}

	return log.NewWithOptions(out, log.Options{
		Level:  log.DebugLevel,
		Prefix: t.Name(),
	})
}

// CaptureLogger returns a debug-level logger writing plain text into the
// returned buffer, for tests that assert on log lines.
func CaptureLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return l, &buf
}
