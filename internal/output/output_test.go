package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"
)

func newBuffered(format Format) (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(format, WithOutput(&out), WithErrorOutput(&errOut)), &out, &errOut
}

func TestWriter_Write_Text(t *testing.T) {
	w, out, errOut := newBuffered(FormatText)

	if err := w.Write("hello"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := errOut.String(); got != "hello\n" {
		t.Fatalf("unexpected output: %q", got)
	}
	if out.Len() != 0 {
		t.Fatalf("text mode wrote to stdout: %q", out.String())
	}
}

func TestWriter_Write_JSON(t *testing.T) {
	w, out, _ := newBuffered(FormatJSON)
	if err := w.Write(map[string]any{"session_id": "abc", "confirmed": true}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !strings.Contains(out.String(), "\n  ") {
		t.Fatalf("expected pretty-printed JSON, got: %q", out.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("json.Unmarshal: %v; out=%q", err, out.String())
	}
	if payload["session_id"] != "abc" || payload["confirmed"] != true {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestWriter_Write_YAMLUsesJSONNames(t *testing.T) {
	type payload struct {
		Context  string `json:"context"`
		Category string `json:"category"`
		Count    int    `json:"count"`
	}
	w, out, _ := newBuffered(FormatYAML)
	if err := w.Write(payload{Context: "prod-eu-1", Category: "prod", Count: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal: %v; out=%q", err, out.String())
	}
	if decoded["context"] != "prod-eu-1" || decoded["category"] != "prod" {
		t.Fatalf("unexpected payload: %#v", decoded)
	}
	if !strings.HasSuffix(out.String(), "\n") {
		t.Fatalf("yaml output should end with a newline: %q", out.String())
	}
}

func TestWriter_Write_UnsupportedFormat(t *testing.T) {
	w, _, _ := newBuffered(Format("bogus"))
	if err := w.Write("x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriter_Structured(t *testing.T) {
	for format, want := range map[Format]bool{FormatText: false, FormatJSON: true, FormatYAML: true} {
		if got := New(format).Structured(); got != want {
			t.Errorf("%s: Structured()=%v want %v", format, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      FormatText,
		"text":  FormatText,
		"JSON":  FormatJSON,
		" yaml": FormatYAML,
		"yml":   FormatYAML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("toon"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
