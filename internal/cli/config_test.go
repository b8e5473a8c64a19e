package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/kcwrap/internal/testutil"
)

func TestConfigCommand_ShowsEffectiveConfig(t *testing.T) {
	setupCLI(t, "dev-1")

	stdout, _, err := executeCommand(rootCmd, "", "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"[names]", `prod = ["prod"]`, "[wrapper]", `bypass_token = "kcw_no_wrap"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfigGet(t *testing.T) {
	setupCLI(t, "dev-1")

	stdout, _, err := executeCommand(rootCmd, "", "config", "get", "session.backend")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if strings.TrimSpace(stdout) != "file" {
		t.Fatalf("session.backend=%q", stdout)
	}

	stdout, _, err = executeCommand(rootCmd, "", "config", "get", "names.test", "--json")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	var payload struct {
		Key   string   `json:"key"`
		Value []string `json:"value"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("json: %v; out=%q", err, stdout)
	}
	if payload.Key != "names.test" || len(payload.Value) != 1 || payload.Value[0] != "staging" {
		t.Fatalf("payload=%+v", payload)
	}

	if _, _, err := executeCommand(rootCmd, "", "config", "get", "nope"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestConfigSet_WritesExplicitAndGlobal(t *testing.T) {
	setupCLI(t, "dev-1")
	home := os.Getenv("HOME")
	explicit := filepath.Join(t.TempDir(), "kcwrap.toml")

	if _, _, err := executeCommand(rootCmd, "", "--config", explicit, "config", "set", "names.prod", "prod, live"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	data, err := os.ReadFile(explicit)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `prod = ["prod", "live"]`) {
		t.Fatalf("unexpected toml: %q", data)
	}

	resetFlags()
	if _, _, err := executeCommand(rootCmd, "", "config", "set", "--global", "log.level", "info"); err != nil {
		t.Fatalf("config set --global: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".kcwrap", "config.toml")); err != nil {
		t.Fatalf("user config not written: %v", err)
	}
}

func TestConfigSet_HonorsConfigEnv(t *testing.T) {
	setupCLI(t, "dev-1")
	explicit := filepath.Join(t.TempDir(), "kcwrap.toml")
	if err := os.WriteFile(explicit, []byte("[session]\nbackend = \"sqlite\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("KCWRAP_CONFIG", explicit)

	if _, _, err := executeCommand(rootCmd, "", "config", "set", "session.backend", "file"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(os.Getenv("HOME"), ".kcwrap", "config.toml")); !os.IsNotExist(err) {
		t.Fatalf("user config should not be written when KCWRAP_CONFIG is set: %v", err)
	}

	stdout, _, err := executeCommand(rootCmd, "", "config", "get", "session.backend")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if strings.TrimSpace(stdout) != "file" {
		t.Fatalf("session.backend=%q want file", stdout)
	}
}

func TestConfigSet_RejectsInvalidValues(t *testing.T) {
	setupCLI(t, "dev-1")
	target := filepath.Join(os.Getenv("HOME"), ".kcwrap", "config.toml")

	if _, _, err := executeCommand(rootCmd, "", "config", "set", "session.backend", "etcd"); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("invalid value was written: %v", err)
	}

	if _, _, err := executeCommand(rootCmd, "", "config", "set", "no.such.key", "x"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestConfigEdit_UsesEditor(t *testing.T) {
	mock, _ := setupCLI(t, "dev-1")
	t.Setenv("EDITOR", "code --wait")
	target := filepath.Join(os.Getenv("HOME"), ".kcwrap", "config.toml")

	if _, _, err := executeCommand(rootCmd, "", "config", "edit"); err != nil {
		t.Fatalf("config edit: %v", err)
	}
	if !mock.WasCalledWith(testutil.CallPassthrough, "code", "--wait", target) {
		t.Fatalf("editor not invoked: %+v", mock.RecordedCalls)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("config file should be created before editing: %v", err)
	}
}
