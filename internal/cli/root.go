// Package cli implements the Cobra command-line interface for kcwrap.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/Dicklesworthstone/kcwrap/internal/config"
	"github.com/Dicklesworthstone/kcwrap/internal/output"
	"github.com/Dicklesworthstone/kcwrap/internal/ui"
	"github.com/Dicklesworthstone/kcwrap/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig  string
	flagOutput  string
	flagJSON    bool
	flagVerbose bool
)

// OutputFormatEnv selects the default output format for kcwrap's own commands.
const OutputFormatEnv = "KCWRAP_OUTPUT_FORMAT"

var rootCmd = &cobra.Command{
	Use:   "kcwrap <tool> [args...]",
	Short: "Confirm the Kubernetes context before running cluster tools",
	Long: `kcwrap wraps kubectl, flux, helm, kubeadm and istioctl.

Before the wrapped tool runs, kcwrap shows the current context colored by
category (prod, test, dev) and asks for confirmation. A confirmation is
remembered for the shell session for 10 minutes.

Put '` + "kcw_no_wrap" + `' as the first tool argument to skip the check once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			tools []string
			theme *ui.Theme
		)
		if cfg, err := loadConfig(); err == nil {
			tools = cfg.Wrapper.Tools
			theme = cfg.Theme()
		}
		printUsage(cmd.ErrOrStderr(), tools, theme)
		return &ExitError{Code: 1}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]any{
			"version":     version,
			"commit":      commit,
			"build_date":  date,
			"go_version":  runtime.Version(),
			"config_path": config.WritePath(flagConfig),
		}

		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(payload)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "kcwrap %s\n", version)
		fmt.Fprintf(w, "  commit:  %s\n", commit)
		fmt.Fprintf(w, "  built:   %s\n", date)
		fmt.Fprintf(w, "  go:      %s\n", payload["go_version"])
		fmt.Fprintf(w, "  config:  %s\n", payload["config_path"])
		return nil
	},
}

// ExitError carries a process exit code out of a command. A nil Err means
// the command already reported whatever needed reporting.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs the root command.
func Execute() error {
	ensureToolCommand(rootCmd, os.Args[1:])
	return rootCmd.Execute()
}

// ExitCode reports err on stderr and maps it to a process exit code.
func ExitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(stderr, "[kcwrap] Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "[kcwrap] Error: %v\n", err)
	return 1
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > KCWRAP_OUTPUT_FORMAT env > default
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "" && flagOutput != "text" {
		return flagOutput
	}
	if envFormat := os.Getenv(OutputFormatEnv); envFormat != "" {
		switch envFormat {
		case "json", "yaml", "text":
			return envFormat
		}
	}
	return "text"
}

func newWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(GetOutput())
	if err != nil {
		return nil, err
	}
	return output.New(format, output.WithOutput(cmd.OutOrStdout()), output.WithErrorOutput(cmd.ErrOrStderr())), nil
}

// loadConfig loads configuration honoring --config and --verbose. Wrapped
// tool commands do not parse flags, so KCWRAP_CONFIG stands in for --config.
// explicitConfigPath is --config, or KCWRAP_CONFIG when the flag is unset.
func explicitConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return os.Getenv(config.ConfigEnv)
}

func loadConfig() (config.Config, error) {
	opts := config.LoadOptions{ConfigPath: explicitConfigPath()}
	if flagVerbose {
		opts.FlagOverrides = map[string]any{"log.level": "debug"}
	}
	return config.Load(opts)
}

// newLogger builds the process logger at the configured level.
func newLogger(cfg config.Config, w io.Writer) *log.Logger {
	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	return utils.InitLogger(utils.LoggerOptions{Level: level, Output: w, Prefix: "kcwrap"})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: KCWRAP_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")

	rootCmd.AddCommand(versionCmd)
}
