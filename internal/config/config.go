// Package config loads kcwrap configuration.
//
// Precedence, lowest to highest: defaults, user file (~/.kcwrap/config.toml),
// explicit --config file, environment, flag overrides. The category name
// lists additionally come from numbered variables (KCWRAP_PROD1, ...).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/kcwrap/internal/classify"
	"github.com/Dicklesworthstone/kcwrap/internal/dispatch"
	"github.com/Dicklesworthstone/kcwrap/internal/kube"
	"github.com/Dicklesworthstone/kcwrap/internal/session"
	"github.com/Dicklesworthstone/kcwrap/internal/ui"
	"github.com/Dicklesworthstone/kcwrap/internal/utils"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every kcwrap environment variable.
const EnvPrefix = "KCWRAP"

// ConfigEnv names an explicit config file when --config cannot be passed.
const ConfigEnv = "KCWRAP_CONFIG"

// MaxNamesPerCategory caps the numbered name variables read per category.
const MaxNamesPerCategory = 50

// Config is the full kcwrap configuration.
type Config struct {
	Names   NamesConfig   `toml:"names" mapstructure:"names" json:"names"`
	Session SessionConfig `toml:"session" mapstructure:"session" json:"session"`
	Context ContextConfig `toml:"context" mapstructure:"context" json:"context"`
	Wrapper WrapperConfig `toml:"wrapper" mapstructure:"wrapper" json:"wrapper"`
	UI      UIConfig      `toml:"ui" mapstructure:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" mapstructure:"log" json:"log"`
}

// NamesConfig lists the context name fragments per category.
type NamesConfig struct {
	Prod []string `toml:"prod" mapstructure:"prod" json:"prod"`
	Test []string `toml:"test" mapstructure:"test" json:"test"`
	Dev  []string `toml:"dev" mapstructure:"dev" json:"dev"`
}

// SessionConfig selects the session store and identity.
type SessionConfig struct {
	Backend      string `toml:"backend" mapstructure:"backend" json:"backend"`
	StateDir     string `toml:"state_dir" mapstructure:"state_dir" json:"state_dir"`
	DatabasePath string `toml:"database_path" mapstructure:"database_path" json:"database_path"`
	Identity     string `toml:"identity" mapstructure:"identity" json:"identity"`
	TokenEnv     string `toml:"token_env" mapstructure:"token_env" json:"token_env"`
}

// ContextConfig selects how the current context is resolved.
type ContextConfig struct {
	Source     string `toml:"source" mapstructure:"source" json:"source"`
	Command    string `toml:"command" mapstructure:"command" json:"command"`
	Kubeconfig string `toml:"kubeconfig" mapstructure:"kubeconfig" json:"kubeconfig"`
}

// WrapperConfig controls which tools are wrapped and the pass-through paths.
type WrapperConfig struct {
	Tools             []string `toml:"tools" mapstructure:"tools" json:"tools"`
	BypassToken       string   `toml:"bypass_token" mapstructure:"bypass_token" json:"bypass_token"`
	CompletionMarkers []string `toml:"completion_markers" mapstructure:"completion_markers" json:"completion_markers"`
}

// UIConfig selects the banner and help palette.
type UIConfig struct {
	Theme string `toml:"theme" mapstructure:"theme" json:"theme"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level" json:"level"`
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigPath is an explicit config file merged over the user file.
	ConfigPath string
	// FlagOverrides are applied last, keyed by dotted config key.
	FlagOverrides map[string]any
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Names: NamesConfig{
			Prod: []string{},
			Test: []string{},
			Dev:  []string{},
		},
		Session: SessionConfig{
			Backend:  "file",
			Identity: "auto",
			TokenEnv: session.DefaultTokenEnv,
		},
		Context: ContextConfig{
			Source:  "command",
			Command: kube.DefaultContextCommand,
		},
		Wrapper: WrapperConfig{
			Tools:             append([]string(nil), dispatch.DefaultTools...),
			BypassToken:       dispatch.DefaultBypassToken,
			CompletionMarkers: append([]string(nil), dispatch.DefaultCompletionMarkers...),
		},
		UI: UIConfig{
			Theme: string(ui.FlavorMocha),
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("names.prod", d.Names.Prod)
	v.SetDefault("names.test", d.Names.Test)
	v.SetDefault("names.dev", d.Names.Dev)

	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.state_dir", d.Session.StateDir)
	v.SetDefault("session.database_path", d.Session.DatabasePath)
	v.SetDefault("session.identity", d.Session.Identity)
	v.SetDefault("session.token_env", d.Session.TokenEnv)

	v.SetDefault("context.source", d.Context.Source)
	v.SetDefault("context.command", d.Context.Command)
	v.SetDefault("context.kubeconfig", d.Context.Kubeconfig)

	v.SetDefault("wrapper.tools", d.Wrapper.Tools)
	v.SetDefault("wrapper.bypass_token", d.Wrapper.BypassToken)
	v.SetDefault("wrapper.completion_markers", d.Wrapper.CompletionMarkers)

	v.SetDefault("ui.theme", d.UI.Theme)

	v.SetDefault("log.level", d.Log.Level)
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"session.backend":       "KCWRAP_SESSION_BACKEND",
	"session.state_dir":     "KCWRAP_STATE_DIR",
	"session.database_path": "KCWRAP_DATABASE_PATH",
	"session.identity":      "KCWRAP_IDENTITY",
	"context.source":        "KCWRAP_CONTEXT_SOURCE",
	"context.command":       "KCWRAP_CONTEXT_COMMAND",
	"wrapper.bypass_token":  "KCWRAP_BYPASS_TOKEN",
	"ui.theme":              "KCWRAP_THEME",
	"log.level":             utils.LogLevelEnv,
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	userPath, explicitPath := ConfigPaths(opts.ConfigPath)
	if err := mergeConfigFile(v, userPath); err != nil {
		return Config{}, err
	}
	if explicitPath != "" && explicitPath != userPath {
		if _, err := os.Stat(explicitPath); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		if err := mergeConfigFile(v, explicitPath); err != nil {
			return Config{}, err
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	applyEnvNames(&cfg, os.Getenv)
	cfg.Names = normalizeNames(cfg.Names)

	if cfg.Session.StateDir == "" {
		cfg.Session.StateDir = os.TempDir()
	}
	if cfg.Session.DatabasePath == "" {
		cfg.Session.DatabasePath = filepath.Join(cfg.Session.StateDir, "kcwrap-sessions.db")
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadNumberedNames reads PREFIX_<CATEGORY>1, PREFIX_<CATEGORY>2, ... until
// the first unset or empty variable, up to MaxNamesPerCategory entries.
func ReadNumberedNames(category string, getenv func(string) string) []string {
	var names []string
	for i := 1; i <= MaxNamesPerCategory; i++ {
		value := getenv(fmt.Sprintf("%s_%s%d", EnvPrefix, strings.ToUpper(category), i))
		if value == "" {
			break
		}
		names = append(names, value)
	}
	return names
}

// applyEnvNames replaces a category's list when its numbered variables are set.
func applyEnvNames(cfg *Config, getenv func(string) string) {
	if names := ReadNumberedNames("prod", getenv); len(names) > 0 {
		cfg.Names.Prod = names
	}
	if names := ReadNumberedNames("test", getenv); len(names) > 0 {
		cfg.Names.Test = names
	}
	if names := ReadNumberedNames("dev", getenv); len(names) > 0 {
		cfg.Names.Dev = names
	}
}

// normalizeNames lower-cases and trims entries, dropping empty ones, so they
// compare against the normalized context.
func normalizeNames(n NamesConfig) NamesConfig {
	clean := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return NamesConfig{Prod: clean(n.Prod), Test: clean(n.Test), Dev: clean(n.Dev)}
}

// Theme returns the configured palette.
func (c Config) Theme() *ui.Theme {
	return ui.ThemeFor(ui.FlavorName(c.UI.Theme))
}

// ClassifyNames converts the name lists for the classifier.
func (c Config) ClassifyNames() classify.Names {
	return classify.Names{Prod: c.Names.Prod, Test: c.Names.Test, Dev: c.Names.Dev}
}

// Validate checks enum values and required settings.
func Validate(cfg Config) error {
	var errs []error

	switch cfg.Session.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("session.backend must be file or sqlite, got %q", cfg.Session.Backend))
	}
	switch cfg.Session.Identity {
	case "auto", "ppid", "token":
	default:
		errs = append(errs, fmt.Errorf("session.identity must be auto, ppid or token, got %q", cfg.Session.Identity))
	}
	if cfg.Session.Identity == "token" && cfg.Session.TokenEnv == "" {
		errs = append(errs, errors.New("session.token_env is required when session.identity is token"))
	}
	switch cfg.Context.Source {
	case "command":
		if strings.TrimSpace(cfg.Context.Command) == "" {
			errs = append(errs, errors.New("context.command is required when context.source is command"))
		}
	case "kubeconfig":
	default:
		errs = append(errs, fmt.Errorf("context.source must be command or kubeconfig, got %q", cfg.Context.Source))
	}
	if len(cfg.Wrapper.Tools) == 0 {
		errs = append(errs, errors.New("wrapper.tools must list at least one tool"))
	}
	for _, tool := range cfg.Wrapper.Tools {
		if tool == "" || strings.ContainsAny(tool, " /\t") {
			errs = append(errs, fmt.Errorf("wrapper.tools entry %q is not a bare command name", tool))
		}
	}
	switch ui.FlavorName(cfg.UI.Theme) {
	case ui.FlavorMocha, ui.FlavorLatte:
	default:
		errs = append(errs, fmt.Errorf("ui.theme must be mocha or latte, got %q", cfg.UI.Theme))
	}
	if !utils.ValidLogLevel(cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not a known level", cfg.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// ConfigPaths returns the user config path and the explicit override path.
func ConfigPaths(configPath string) (userPath, explicitPath string) {
	home, _ := os.UserHomeDir()
	userPath = filepath.Join(home, ".kcwrap", "config.toml")
	return userPath, configPath
}

// WritePath returns the file `config set` writes: the explicit path when
// given, otherwise the user file.
func WritePath(configPath string) string {
	userPath, explicit := ConfigPaths(configPath)
	if explicit != "" {
		return explicit
	}
	return userPath
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
