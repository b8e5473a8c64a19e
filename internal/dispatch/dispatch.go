// Package dispatch forwards a wrapped invocation to the real tool.
package dispatch

import (
	"context"
	"slices"
	"strings"

	"github.com/Dicklesworthstone/kcwrap/internal/proc"
	"github.com/charmbracelet/log"
)

// DefaultBypassToken skips confirmation when it is the first forwarded argument.
const DefaultBypassToken = "kcw_no_wrap"

// DefaultCompletionMarkers identify shell-completion queries.
// kubectl uses __complete; the completion subcommand generates scripts.
var DefaultCompletionMarkers = []string{"__complete", "completion"}

// DefaultTools are the tools kcwrap wraps out of the box.
var DefaultTools = []string{"kubectl", "flux", "helm", "kubeadm", "istioctl"}

// IsCompletionCall reports whether any argument contains a completion marker.
func IsCompletionCall(args, markers []string) bool {
	for _, arg := range args {
		for _, m := range markers {
			if m != "" && strings.Contains(arg, m) {
				return true
			}
		}
	}
	return false
}

// SplitBypass reports whether args starts with token and returns the
// arguments after it. Only the first position counts.
func SplitBypass(args []string, token string) ([]string, bool) {
	if token == "" || len(args) == 0 || args[0] != token {
		return args, false
	}
	return args[1:], true
}

// IsSupported reports whether tool is one of tools.
func IsSupported(tool string, tools []string) bool {
	return slices.Contains(tools, tool)
}

// Dispatcher runs the wrapped tool with inherited stdio.
type Dispatcher struct {
	exec   proc.Executor
	logger *log.Logger
}

// New creates a dispatcher. A nil executor uses the real process stdio.
func New(exec proc.Executor, logger *log.Logger) *Dispatcher {
	if exec == nil {
		exec = proc.NewOSExecutor()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{exec: exec, logger: logger}
}

// Forward runs tool with args unmodified and returns its exit code.
func (d *Dispatcher) Forward(ctx context.Context, tool string, args []string) (int, error) {
	d.logger.Debug("forwarding", "tool", tool, "args", args)
	code, err := d.exec.Passthrough(ctx, tool, args...)
	if err != nil {
		return code, err
	}
	d.logger.Debug("tool exited", "tool", tool, "code", code)
	return code, nil
}
