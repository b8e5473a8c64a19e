package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/kcwrap/internal/proc"
	"github.com/Dicklesworthstone/kcwrap/internal/testutil"
	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with the given args and stdin and
// returns stdout, stderr, and error.
func executeCommand(root *cobra.Command, stdin string, args ...string) (stdout string, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)

	if args == nil {
		args = []string{}
	}
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err = root.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}

func resetFlags() {
	flagConfig = ""
	flagOutput = "text"
	flagJSON = false
	flagVerbose = false
	flagConfigGlobal = false
	resetHelpFlags(rootCmd)
}

// resetHelpFlags clears --help left set by an earlier Execute.
func resetHelpFlags(c *cobra.Command) {
	if f := c.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	for _, sub := range c.Commands() {
		resetHelpFlags(sub)
	}
}

// setupCLI isolates config, session state and the executor for one test.
// The current context reported by the mock kubectl is current.
func setupCLI(t *testing.T, current string) (*testutil.MockExecutor, string) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	home := t.TempDir()
	stateDir := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KCWRAP_STATE_DIR", stateDir)
	t.Setenv("KCWRAP_SESSION", "cli-test")
	t.Setenv("KCWRAP_PROD1", "prod")
	t.Setenv("KCWRAP_TEST1", "staging")
	t.Setenv("KCWRAP_DEV1", "dev")
	for _, name := range []string{"KCWRAP_PROD2", "KCWRAP_TEST2", "KCWRAP_DEV2", "KCWRAP_CONFIG", "KCWRAP_OUTPUT_FORMAT", "KCWRAP_LOG_LEVEL", "KCWRAP_SESSION_BACKEND", "KCWRAP_THEME"} {
		t.Setenv(name, "")
	}

	mock := testutil.NewMockExecutor()
	mock.SetOutput("kubectl", []byte(current+"\n"), nil)
	old := newExecutor
	newExecutor = func() proc.Executor { return mock }
	t.Cleanup(func() { newExecutor = old })

	return mock, stateDir
}

func TestRootCommand_ShowsHelp(t *testing.T) {
	setupCLI(t, "dev-1")
	stdout, _, err := executeCommand(rootCmd, "", "--help")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"current context", "Wrapped tools:", "kubectl", "istioctl", "status"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestRootCommand_NoArgsPrintsUsage(t *testing.T) {
	setupCLI(t, "dev-1")
	_, stderr, err := executeCommand(rootCmd, "")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("err=%v want exit 1", err)
	}
	for _, want := range []string{"Usage:", "KCWRAP_PROD1=prod", "KCWRAP_TEST1=staging", "KCWRAP_DEV1=dev", "kcw_no_wrap"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("usage missing %q:\n%s", want, stderr)
		}
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"help flag short", []string{"-h"}},
		{"config flag", []string{"--config", "/tmp/test.toml", "--help"}},
		{"output flag json", []string{"--output", "json", "--help"}},
		{"output flag yaml", []string{"-o", "yaml", "--help"}},
		{"json shorthand", []string{"-j", "--help"}},
		{"verbose flag", []string{"-v", "--help"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLI(t, "dev-1")
			if _, _, err := executeCommand(rootCmd, "", tt.args...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVersionCommand_TextOutput(t *testing.T) {
	setupCLI(t, "dev-1")
	stdout, _, err := executeCommand(rootCmd, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout, "kcwrap "+version) || !strings.Contains(stdout, "config:") {
		t.Fatalf("unexpected output: %q", stdout)
	}
}

func TestVersionCommand_JSONOutput(t *testing.T) {
	setupCLI(t, "dev-1")
	stdout, _, err := executeCommand(rootCmd, "", "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("json: %v; out=%q", err, stdout)
	}
	if payload["version"] != version || payload["go_version"] == "" {
		t.Fatalf("payload=%v", payload)
	}
}

func TestGetOutput(t *testing.T) {
	t.Cleanup(resetFlags)
	tests := []struct {
		name   string
		json   bool
		output string
		env    string
		want   string
	}{
		{"default", false, "text", "", "text"},
		{"json flag", true, "text", "yaml", "json"},
		{"output flag beats env", false, "yaml", "json", "yaml"},
		{"env when flag default", false, "text", "json", "json"},
		{"invalid env ignored", false, "text", "toon", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagJSON = tt.json
			flagOutput = tt.output
			t.Setenv(OutputFormatEnv, tt.env)
			if got := GetOutput(); got != tt.want {
				t.Fatalf("GetOutput()=%q want %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	var buf bytes.Buffer
	if code := ExitCode(nil, &buf); code != 0 || buf.Len() != 0 {
		t.Fatalf("nil error: code=%d out=%q", code, buf.String())
	}

	if code := ExitCode(&ExitError{Code: 7}, &buf); code != 7 || buf.Len() != 0 {
		t.Fatalf("silent exit: code=%d out=%q", code, buf.String())
	}

	if code := ExitCode(&ExitError{Code: 1, Err: errors.New("boom")}, &buf); code != 1 || buf.String() != "[kcwrap] Error: boom\n" {
		t.Fatalf("exit with error: code=%d out=%q", code, buf.String())
	}

	buf.Reset()
	if code := ExitCode(errors.New("plain"), &buf); code != 1 || buf.String() != "[kcwrap] Error: plain\n" {
		t.Fatalf("plain error: code=%d out=%q", code, buf.String())
	}
}

func TestUnknownFlag(t *testing.T) {
	setupCLI(t, "dev-1")
	if _, _, err := executeCommand(rootCmd, "", "--definitely-not-a-flag"); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}
