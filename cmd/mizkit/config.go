// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/config"
)

// newConfigCommand creates the `mizkit config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mizkit configuration",
		Long: `Manage mizkit configuration.

Configuration is stored in:
  - Linux: ~/.config/mizkit/config.cue
  - macOS: ~/Library/Application Support/mizkit/config.cue
  - Windows: %APPDATA%\mizkit\config.cue

Every key can be overridden with an environment variable, for example
MIZKIT_JOBS=4 or MIZKIT_FOLDERS_LAST_TARGET=/repo/missions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			return showConfig(app, rootFlags, cfg)
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			path, err := app.configFile(rootFlags)
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(path); statErr == nil {
				app.printf("%s Configuration already exists at %s\n", WarningStyle.Render("-"), PathStyle.Render(path))
				return nil
			}
			if err := config.SaveTo(path, config.DefaultConfig()); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			app.printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), PathStyle.Render(path))
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			path, err := app.configFile(rootFlags)
			if err != nil {
				return err
			}
			app.printf("Config directory: %s\n", filepath.Dir(path))
			app.printf("Config file: %s\n", path)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value",
		Long:      "Set a configuration value.\n\nKeys: " + strings.Join(config.Keys(), ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			path, err := app.configFile(rootFlags)
			if err != nil {
				return err
			}
			if err := config.SaveTo(path, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			value, _ := cfg.Get(args[0])
			app.printf("%s Set %s = %s\n", SuccessStyle.Render("✓"), args[0], value)
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			app.printf("%s", config.GenerateCUE(cfg))
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Output the CUE schema the configuration is validated against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.printf("%s", config.Schema())
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, rootFlags *rootFlagValues, cfg *config.Config) error {
	keyStyle := PathStyle
	valueStyle := SuccessStyle

	app.printf("%s\n\n", TitleStyle.Render("Current Configuration"))

	path, err := app.configFile(rootFlags)
	if err != nil {
		return err
	}
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		app.printf("%s: %s\n\n", keyStyle.Render("Config file"), path)
	} else {
		app.printf("%s: %s\n\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = SubtitleStyle.Render("(not set)")
		} else {
			value = valueStyle.Render(value)
		}
		app.printf("%s: %s\n", keyStyle.Render(key), value)
	}
	return nil
}
