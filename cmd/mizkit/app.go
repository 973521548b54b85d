// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/mizkit/mizkit/internal/config"
	"github.com/mizkit/mizkit/internal/journal"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives the App instead of touching package-level state.
	App struct {
		Config ConfigProvider

		stdout    io.Writer
		stderr    io.Writer
		configDir string
		logger    *log.Logger
		verbose   bool
		scheme    config.ColorScheme

		// outMu serializes whole lines written by concurrent jobs.
		outMu sync.Mutex
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// ConfigDir overrides the platform config directory.
		ConfigDir string
	}

	// rootFlagValues holds the persistent flags of the root command.
	rootFlagValues struct {
		verbose    bool
		configPath string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config:    deps.Config,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		configDir: deps.ConfigDir,
		logger:    newLogger(deps.Stderr, false),
		scheme:    config.ColorSchemeAuto,
	}
}

// newLogger returns the CLI logger. Verbose output includes per-step
// progress at debug level.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "mizkit",
		ReportTimestamp: verbose,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// setupLogging rebuilds the logger for the parsed flags and installs it as
// the slog default so both APIs share one handler.
func (a *App) setupLogging(verbose bool) {
	a.verbose = verbose
	a.logger = newLogger(a.stderr, verbose)
	slog.SetDefault(slog.New(a.logger))
}

// loadConfig loads the configuration honoring --config and the App's config
// directory, and raises the log level when the config asks for verbose
// output.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ConfigDirPath:  a.configDir,
	})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose && !flags.verbose {
		a.verbose = true
		a.logger.SetLevel(log.DebugLevel)
	}
	a.scheme = cfg.UI.ColorScheme
	return cfg, nil
}

// resolveConfigDir returns the directory holding config.cue and the default
// journal.
func (a *App) resolveConfigDir() (string, error) {
	if a.configDir != "" {
		return a.configDir, nil
	}
	return config.ConfigDir()
}

// configFile returns the file that `config set` and remembered folders are
// written to.
func (a *App) configFile(flags *rootFlagValues) (string, error) {
	switch {
	case flags.configPath != "":
		return flags.configPath, nil
	case a.configDir != "":
		return filepath.Join(a.configDir, config.ConfigFileName+"."+config.ConfigFileExt), nil
	default:
		return config.ConfigPath()
	}
}

// openJournal opens the configured journal. It returns nil when the journal
// is disabled.
func (a *App) openJournal(cfg *config.Config) (*journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	dir, err := a.resolveConfigDir()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg.JournalFile(dir))
}

// printf writes to stdout under the output lock.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.stdout, format, args...)
}

// writeOut copies a buffered block to stdout under the output lock.
func (a *App) writeOut(p []byte) {
	if len(p) == 0 {
		return
	}
	a.outMu.Lock()
	defer a.outMu.Unlock()
	_, _ = a.stdout.Write(p)
}

// reportError renders err on stderr under the output lock.
func (a *App) reportError(err error) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	renderError(a.stderr, err, a.verbose, a.scheme)
}
