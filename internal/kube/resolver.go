// Package kube resolves the cluster context a wrapped command would target.
package kube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/kcwrap/internal/proc"
	"github.com/mattn/go-shellwords"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultContextCommand is the query used by CommandResolver.
const DefaultContextCommand = "kubectl config current-context"

// ErrNoCurrentContext is returned when the kubeconfig names no current context.
var ErrNoCurrentContext = errors.New("no current context set")

// Resolver returns the current context identifier.
type Resolver interface {
	CurrentContext(ctx context.Context) (string, error)
}

// ResolveError reports a context query that exited non-zero.
// Stderr holds the query's own diagnostic for the operator.
type ResolveError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ResolveError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit code %d", e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Command, msg)
}

// CommandResolver runs a command and uses its trimmed stdout as the context.
type CommandResolver struct {
	name string
	args []string
	exec proc.Executor
}

// NewCommandResolver parses command with shell quoting rules.
func NewCommandResolver(command string, exec proc.Executor) (*CommandResolver, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultContextCommand
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parsing context command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("context command %q is empty", command)
	}
	if exec == nil {
		exec = proc.NewOSExecutor()
	}
	return &CommandResolver{name: argv[0], args: argv[1:], exec: exec}, nil
}

// Argv returns the parsed command line.
func (r *CommandResolver) Argv() []string {
	return append([]string{r.name}, r.args...)
}

// CurrentContext implements Resolver.
func (r *CommandResolver) CurrentContext(ctx context.Context) (string, error) {
	out, err := r.exec.Output(ctx, r.name, r.args...)
	if err != nil {
		var exitErr *proc.ExitError
		if errors.As(err, &exitErr) {
			return "", &ResolveError{
				Command: strings.Join(r.Argv(), " "),
				Code:    exitErr.Code,
				Stderr:  exitErr.Stderr,
			}
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// KubeconfigResolver reads current-context straight from kubeconfig using
// the standard client-go loading rules (KUBECONFIG, then ~/.kube/config).
type KubeconfigResolver struct {
	// ExplicitPath overrides the loading rules when set.
	ExplicitPath string
}

// CurrentContext implements Resolver.
func (r KubeconfigResolver) CurrentContext(_ context.Context) (string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if r.ExplicitPath != "" {
		rules.ExplicitPath = r.ExplicitPath
	}

	raw, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{},
	).RawConfig()
	if err != nil {
		return "", fmt.Errorf("load kubeconfig: %w", err)
	}

	current := strings.TrimSpace(raw.CurrentContext)
	if current == "" {
		return "", ErrNoCurrentContext
	}
	return current, nil
}

// New builds the resolver for a configured source: "command" or "kubeconfig".
func New(source, command, kubeconfig string, exec proc.Executor) (Resolver, error) {
	switch source {
	case "", "command":
		return NewCommandResolver(command, exec)
	case "kubeconfig":
		return KubeconfigResolver{ExplicitPath: kubeconfig}, nil
	default:
		return nil, fmt.Errorf("unknown context source %q", source)
	}
}
