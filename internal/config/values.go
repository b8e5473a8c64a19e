package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type valueKind int

const (
	kindString valueKind = iota
	kindStringSlice
	kindBool
)

var keyKinds = map[string]valueKind{
	"names.prod": kindStringSlice,
	"names.test": kindStringSlice,
	"names.dev":  kindStringSlice,

	"session.backend":       kindString,
	"session.state_dir":     kindString,
	"session.database_path": kindString,
	"session.identity":      kindString,
	"session.token_env":     kindString,

	"context.source":     kindString,
	"context.command":    kindString,
	"context.kubeconfig": kindString,

	"wrapper.tools":              kindStringSlice,
	"wrapper.bypass_token":       kindString,
	"wrapper.completion_markers": kindStringSlice,

	"ui.theme":  kindString,
	"log.level": kindString,
}

// Keys lists every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseValue converts a command-line string into the type key expects.
// Lists are comma separated; blank entries are dropped.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported config key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		return strconv.ParseBool(raw)
	case kindStringSlice:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", kind)
	}
}

// GetValue returns the value at a dotted key, or a whole section.
func GetValue(cfg Config, key string) (any, bool) {
	switch key {
	case "names":
		return cfg.Names, true
	case "session":
		return cfg.Session, true
	case "context":
		return cfg.Context, true
	case "wrapper":
		return cfg.Wrapper, true
	case "ui":
		return cfg.UI, true
	case "log":
		return cfg.Log, true

	case "names.prod":
		return cfg.Names.Prod, true
	case "names.test":
		return cfg.Names.Test, true
	case "names.dev":
		return cfg.Names.Dev, true

	case "session.backend":
		return cfg.Session.Backend, true
	case "session.state_dir":
		return cfg.Session.StateDir, true
	case "session.database_path":
		return cfg.Session.DatabasePath, true
	case "session.identity":
		return cfg.Session.Identity, true
	case "session.token_env":
		return cfg.Session.TokenEnv, true

	case "context.source":
		return cfg.Context.Source, true
	case "context.command":
		return cfg.Context.Command, true
	case "context.kubeconfig":
		return cfg.Context.Kubeconfig, true

	case "wrapper.tools":
		return cfg.Wrapper.Tools, true
	case "wrapper.bypass_token":
		return cfg.Wrapper.BypassToken, true
	case "wrapper.completion_markers":
		return cfg.Wrapper.CompletionMarkers, true

	case "ui.theme":
		return cfg.UI.Theme, true

	case "log.level":
		return cfg.Log.Level, true
	}
	return nil, false
}

// WriteValue sets key in the TOML file at path, creating the file and any
// intermediate tables. Other keys in the file are preserved.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}

	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	parts := strings.Split(key, ".")
	table := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := table[part]
		if !ok {
			child := map[string]any{}
			table[part] = child
			table = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %q: %s is not a table", key, part)
		}
		table = child
	}
	table[parts[len(parts)-1]] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
