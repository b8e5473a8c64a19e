package cli

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/kcwrap/internal/config"
	"github.com/Dicklesworthstone/kcwrap/internal/core"
	"github.com/Dicklesworthstone/kcwrap/internal/dispatch"
	"github.com/Dicklesworthstone/kcwrap/internal/kube"
	"github.com/Dicklesworthstone/kcwrap/internal/proc"
	"github.com/Dicklesworthstone/kcwrap/internal/prompt"
	"github.com/Dicklesworthstone/kcwrap/internal/session"
	"github.com/Dicklesworthstone/kcwrap/internal/ui"
	"github.com/spf13/cobra"
)

const toolsGroup = "tools"

// newExecutor is replaced in tests.
var newExecutor = func() proc.Executor { return proc.NewOSExecutor() }

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: toolsGroup, Title: "Wrapped tools:"})
	for _, tool := range dispatch.DefaultTools {
		rootCmd.AddCommand(newToolCommand(tool))
	}
}

// newToolCommand forwards every argument verbatim, flags included.
func newToolCommand(tool string) *cobra.Command {
	return &cobra.Command{
		Use:                tool + " [args...]",
		Short:              fmt.Sprintf("Run %s after confirming the current context", tool),
		GroupID:            toolsGroup,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !dispatch.IsSupported(tool, cfg.Wrapper.Tools) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Unsupported tool: %s. Please use one of: %s\n",
					tool, strings.Join(cfg.Wrapper.Tools, ", "))
				printUsage(cmd.ErrOrStderr(), cfg.Wrapper.Tools, cfg.Theme())
				return &ExitError{Code: 1}
			}
			return runGuard(cmd, cfg, tool, args)
		},
	}
}

// ensureToolCommand registers a command for a first argument that names no
// existing command, so tools added through config get the same pass-through
// handling as the built-in ones.
func ensureToolCommand(root *cobra.Command, args []string) {
	if len(args) == 0 {
		return
	}
	first := args[0]
	if first == "" || strings.HasPrefix(first, "-") {
		return
	}
	switch first {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return
	}
	for _, c := range root.Commands() {
		if c.Name() == first || c.HasAlias(first) {
			return
		}
	}
	root.AddCommand(newToolCommand(first))
}

// runGuard wires the guard from configuration and runs one invocation.
func runGuard(cmd *cobra.Command, cfg config.Config, tool string, args []string) error {
	logger := newLogger(cfg, cmd.ErrOrStderr())
	exec := newExecutor()

	resolver, err := kube.New(cfg.Context.Source, cfg.Context.Command, cfg.Context.Kubeconfig, exec)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	identity, err := session.IdentityFor(cfg.Session.Identity, cfg.Session.TokenEnv)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	defer closeStore()

	guard, err := core.NewGuard(core.GuardOptions{
		Resolver:          resolver,
		Identity:          identity,
		Store:             store,
		Prompter:          prompt.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr()),
		Dispatcher:        dispatch.New(exec, logger),
		Presenter:         ui.NewPresenter(cmd.ErrOrStderr(), ui.WithTheme(cfg.Theme())),
		Names:             cfg.ClassifyNames(),
		BypassToken:       cfg.Wrapper.BypassToken,
		CompletionMarkers: cfg.Wrapper.CompletionMarkers,
		Logger:            logger,
	})
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	res, err := guard.Run(cmd.Context(), tool, args)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}

// openStore returns the configured session store and its cleanup.
func openStore(cfg config.Config) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case "sqlite":
		s, err := session.OpenSQLiteStore(cfg.Session.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return session.NewFileStore(cfg.Session.StateDir), func() {}, nil
	}
}
