package proc

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestOutput(t *testing.T) {
	requireSh(t)
	x := &OSExecutor{}

	out, err := x.Output(context.Background(), "sh", "-c", "printf 'prod-eu-1\n'")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if string(out) != "prod-eu-1\n" {
		t.Fatalf("out=%q", out)
	}

	_, err = x.Output(context.Background(), "sh", "-c", "echo 'no context set' >&2; exit 3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err=%v want *ExitError", err)
	}
	if exitErr.Code != 3 || !strings.Contains(exitErr.Stderr, "no context set") {
		t.Fatalf("exitErr=%+v", exitErr)
	}
	if !strings.Contains(exitErr.Error(), "no context set") {
		t.Fatalf("Error()=%q should include stderr", exitErr.Error())
	}
}

func TestOutput_MissingBinary(t *testing.T) {
	x := &OSExecutor{}
	_, err := x.Output(context.Background(), "kcwrap-definitely-not-installed")
	if err == nil {
		t.Fatalf("expected error")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Fatalf("missing binary should not be an ExitError")
	}
}

func TestPassthrough(t *testing.T) {
	requireSh(t)
	var stdout, stderr bytes.Buffer
	x := &OSExecutor{Stdin: strings.NewReader("piped\n"), Stdout: &stdout, Stderr: &stderr}

	code, err := x.Passthrough(context.Background(), "sh", "-c", "read line; echo \"got $line\"; echo warn >&2; exit 7")
	if err != nil {
		t.Fatalf("Passthrough: %v", err)
	}
	if code != 7 {
		t.Fatalf("code=%d want 7", code)
	}
	if stdout.String() != "got piped\n" || stderr.String() != "warn\n" {
		t.Fatalf("stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestPassthrough_StartFailure(t *testing.T) {
	x := &OSExecutor{}
	code, err := x.Passthrough(context.Background(), "kcwrap-definitely-not-installed", "get", "pods")
	if err == nil {
		t.Fatalf("expected start error")
	}
	if code != 1 {
		t.Fatalf("code=%d want 1", code)
	}
}
