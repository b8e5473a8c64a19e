// Package output formats command results for kcwrap's own subcommands.
// JSON and YAML go to stdout with snake_case keys; text goes to stderr so
// stdout stays clean for piping.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", s)
	}
}

// Writer handles formatted output.
type Writer struct {
	format Format
	out    io.Writer
	errOut io.Writer
}

// Option configures the Writer.
type Option func(*Writer)

// WithOutput sets the standard output writer.
func WithOutput(w io.Writer) Option {
	return func(wr *Writer) {
		wr.out = w
	}
}

// WithErrorOutput sets the error output writer.
func WithErrorOutput(w io.Writer) Option {
	return func(wr *Writer) {
		wr.errOut = w
	}
}

// New creates a new output writer.
func New(format Format, opts ...Option) *Writer {
	w := &Writer{
		format: format,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Format returns the writer's format.
func (w *Writer) Format() Format { return w.format }

// Structured reports whether the writer emits machine-readable output.
func (w *Writer) Structured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs data in the configured format.
func (w *Writer) Write(data any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		b, err := marshalYAML(data)
		if err != nil {
			return err
		}
		_, err = w.out.Write(b)
		return err
	case FormatText:
		_, err := fmt.Fprintf(w.errOut, "%v\n", data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
}

// marshalYAML round-trips through JSON so json tags name the YAML keys.
func marshalYAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	return b, nil
}
