package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/Dicklesworthstone/kcwrap/internal/config"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
)

var (
	flagConfigGlobal bool
)

func init() {
	configCmd.PersistentFlags().BoolVar(&flagConfigGlobal, "global", false, "operate on user config (~/.kcwrap/config.toml)")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEditCmd)

	rootCmd.AddCommand(configCmd)
}

// configTarget is the file `config set` and `config edit` modify.
func configTarget() string {
	if flagConfigGlobal {
		userPath, _ := config.ConfigPaths("")
		return userPath
	}
	return config.WritePath(explicitConfigPath())
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify kcwrap configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(cfg)
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.Keys(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(map[string]any{
				"key":   args[0],
				"value": val,
			})
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%v\n", val)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the config file (or --global user file)",
	Long: `Set a configuration value. List values are comma separated:

  kcwrap config set names.prod prod,live`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := configTarget()

		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}
		// Refuse values the loader would reject. The target may not exist yet.
		existing := explicitConfigPath()
		if _, err := os.Stat(existing); err != nil {
			existing = ""
		}
		if _, err := config.Load(config.LoadOptions{
			ConfigPath:    existing,
			FlagOverrides: map[string]any{args[0]: value},
		}); err != nil {
			return err
		}
		if err := config.WriteValue(target, args[0], value); err != nil {
			return err
		}

		out, err := newWriter(cmd)
		if err != nil {
			return err
		}
		if out.Structured() {
			return out.Write(map[string]any{
				"path":  target,
				"key":   args[0],
				"value": value,
			})
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %v (%s)\n", args[0], value, target)
		return err
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR (default: vi)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := configTarget()

		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			if err := config.WriteValue(target, "log.level", config.DefaultConfig().Log.Level); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", target, err)
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}
		argv, err := shellwords.Parse(editor)
		if err != nil || len(argv) == 0 {
			return fmt.Errorf("parsing $EDITOR %q: %v", editor, err)
		}
		argv = append(argv, target)

		code, err := newExecutor().Passthrough(cmd.Context(), argv[0], argv[1:]...)
		if err != nil {
			return err
		}
		if code != 0 {
			return &ExitError{Code: code, Err: fmt.Errorf("%s exited with code %d", argv[0], code)}
		}
		return nil
	},
}
