// Package proc runs child processes for the resolver and the dispatcher.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ExitError reports a child that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.Code, msg)
}

// Executor runs commands.
type Executor interface {
	// Output runs name and returns its stdout. A non-zero exit yields
	// an *ExitError carrying stderr.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Passthrough runs name attached to the executor's stdio and returns
	// its exit code. The error is non-nil only when the child could not
	// be started or waited on.
	Passthrough(ctx context.Context, name string, args ...string) (int, error)
}

// OSExecutor runs real processes.
type OSExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewOSExecutor returns an executor wired to the current process stdio.
func NewOSExecutor() *OSExecutor {
	return &OSExecutor{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Output implements Executor.
func (x *OSExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &ExitError{Name: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("running %s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Passthrough implements Executor.
func (x *OSExecutor) Passthrough(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	cmd.Stdin = x.Stdin
	cmd.Stdout = x.Stdout
	cmd.Stderr = x.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by a signal.
			code = 1
		}
		return code, nil
	}
	return 1, fmt.Errorf("executing %s: %w", name, err)
}
