package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/Dicklesworthstone/kcwrap/internal/proc"
)

// CallKind distinguishes captured-output runs from passthrough runs.
type CallKind string

const (
	CallOutput      CallKind = "output"
	CallPassthrough CallKind = "passthrough"
)

// CommandCall records a single command invocation.
type CommandCall struct {
	Kind CallKind
	Name string
	Args []string
}

type outputResult struct {
	out []byte
	err error
}

type passthroughResult struct {
	code int
	err  error
}

// MockExecutor records and simulates command execution for testing.
// It implements proc.Executor.
type MockExecutor struct {
	mu sync.Mutex

	// RecordedCalls contains all commands that were invoked.
	RecordedCalls []CommandCall

	outputs      map[string]outputResult
	passthroughs map[string]passthroughResult
}

var _ proc.Executor = (*MockExecutor)(nil)

// NewMockExecutor creates a mock where every passthrough exits 0 and
// every output run returns nothing.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		outputs:      make(map[string]outputResult),
		passthroughs: make(map[string]passthroughResult),
	}
}

// SetOutput configures the result of Output for name.
func (m *MockExecutor) SetOutput(name string, out []byte, err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[name] = outputResult{out: out, err: err}
	return m
}

// SetExit configures the result of Passthrough for name.
func (m *MockExecutor) SetExit(name string, code int, err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passthroughs[name] = passthroughResult{code: code, err: err}
	return m
}

// Output implements proc.Executor.
func (m *MockExecutor) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordedCalls = append(m.RecordedCalls, CommandCall{Kind: CallOutput, Name: name, Args: slices.Clone(args)})
	r := m.outputs[name]
	return r.out, r.err
}

// Passthrough implements proc.Executor.
func (m *MockExecutor) Passthrough(_ context.Context, name string, args ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordedCalls = append(m.RecordedCalls, CommandCall{Kind: CallPassthrough, Name: name, Args: slices.Clone(args)})
	r := m.passthroughs[name]
	return r.code, r.err
}

// Calls returns a copy of the recorded calls of kind.
func (m *MockExecutor) Calls(kind CallKind) []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CommandCall
	for _, c := range m.RecordedCalls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns the number of recorded calls.
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// WasCalledWith returns true if name was invoked with exactly args.
func (m *MockExecutor) WasCalledWith(kind CallKind, name string, args ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.RecordedCalls {
		if call.Kind == kind && call.Name == name && slices.Equal(call.Args, args) {
			return true
		}
	}
	return false
}
