// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/mizkit/mizkit/internal/issue"
	"github.com/mizkit/mizkit/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "mizkit"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// JournalFileName is the default journal database inside the config directory.
	JournalFileName = "journal.db"
	// EnvPrefix prefixes environment variables that override config keys.
	EnvPrefix = "MIZKIT"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the mizkit configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(configDir, AppName), nil
}

// ConfigPath returns the path of config.cue inside ConfigDir.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads the configuration and returns it together with the file it was
// read from. The path is empty when no file exists and defaults are used.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()
	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", loadError(opts.ConfigFilePath,
				fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
				"Verify the file path is correct",
				"Use 'mizkit config init' to create a default configuration")
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			dir, err := ConfigDir()
			if err != nil {
				return nil, "", err
			}
			cfgDir = dir
		}
		if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
			resolvedPath = p
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", loadError(resolvedPath, err,
				"Check that the file contains valid CUE syntax",
				"Verify the values match the schema shown by 'mizkit config schema'")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", loadError(resolvedPath, errors.Join(errs...),
			"Fix the reported keys or remove them to use the defaults")
	}
	cs, _ := cfg.CharsetValue()
	cfg.Charset = string(cs)
	return &cfg, resolvedPath, nil
}

func loadError(resource string, err error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(resource).
		WithSuggestions(suggestions...).
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// newViper returns a Viper instance holding the defaults and reading
// MIZKIT_* environment overrides.
func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("skip_options_file", defaults.SkipOptionsFile)
	v.SetDefault("charset", defaults.Charset)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("folders.last_source", defaults.Folders.LastSource)
	v.SetDefault("folders.last_target", defaults.Folders.LastTarget)
	v.SetDefault("journal.enabled", defaults.Journal.Enabled)
	v.SetDefault("journal.path", defaults.Journal.Path)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into v.
// Every field the file sets must be concrete; omitted fields keep defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	values, err := cueutil.DecodeMap([]byte(configSchema), data, "#Config", cueutil.WithFilename(path), cueutil.WithConcrete())
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// JournalFile returns the journal database path: the configured one, or
// journal.db inside configDir.
func (c *Config) JournalFile(configDir string) string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(configDir, JournalFileName)
}

// RememberFolders records the directories of a successful reorder.
func (c *Config) RememberFolders(source, target string) {
	if source != "" {
		c.Folders.LastSource = source
	}
	if target != "" {
		c.Folders.LastTarget = target
	}
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file unless one exists. It
// returns the path and whether a file was written.
func CreateDefaultConfig() (string, bool, error) {
	cfgPath, err := ConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}
	if err := SaveTo(cfgPath, DefaultConfig()); err != nil {
		return "", false, err
	}
	return cfgPath, true, nil
}

// Save writes cfg to ConfigPath.
func Save(cfg *Config) error {
	cfgPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfgPath, cfg)
}

// SaveTo writes cfg as CUE to path, creating the parent directory.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// mizkit configuration file\n")
	sb.WriteString("// Run 'mizkit config schema' to see the schema.\n\n")

	fmt.Fprintf(&sb, "skip_options_file: %v\n", cfg.SkipOptionsFile)
	fmt.Fprintf(&sb, "charset: %q\n", cfg.Charset)
	fmt.Fprintf(&sb, "jobs: %d\n", cfg.Jobs)

	if cfg.Folders.LastSource != "" || cfg.Folders.LastTarget != "" {
		sb.WriteString("\nfolders: {\n")
		if cfg.Folders.LastSource != "" {
			fmt.Fprintf(&sb, "\tlast_source: %q\n", cfg.Folders.LastSource)
		}
		if cfg.Folders.LastTarget != "" {
			fmt.Fprintf(&sb, "\tlast_target: %q\n", cfg.Folders.LastTarget)
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\njournal: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Journal.Enabled)
	if cfg.Journal.Path != "" {
		fmt.Fprintf(&sb, "\tpath: %q\n", cfg.Journal.Path)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

// Schema returns the embedded CUE schema.
func Schema() string { return configSchema }
