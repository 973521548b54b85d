// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/config"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand(newCLI(t).app)
	for _, name := range []string{"reorder", "format", "check", "dump", "get", "watch", "history", "config", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (err = %v)", name, err)
		}
	}
}

func TestRunE_ReportsOnce(t *testing.T) {
	t.Parallel()

	c := newCLI(t)
	handler := runE(c.app, func(_ *cobra.Command, _ []string) error {
		return errors.New("boom")
	})
	err := handler(nil, nil)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 || exitErr.Err != nil {
		t.Fatalf("runE() error = %#v, want reported ExitError", err)
	}
	if !strings.Contains(c.stderr.String(), "boom") {
		t.Errorf("stderr = %q, want the error message", c.stderr)
	}

	passthrough := runE(c.app, func(_ *cobra.Command, _ []string) error {
		return &ExitError{Code: 3}
	})
	if err := passthrough(nil, nil); !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Errorf("runE() error = %v, want ExitError code 3 unchanged", err)
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	c := newCLI(t)
	c.mustRun(t, "completion", "bash")
	if !strings.Contains(c.stdout.String(), "mizkit") {
		t.Error("bash completion does not mention mizkit")
	}
	if err := c.run("completion", "tcsh"); err == nil {
		t.Error("completion accepted an unsupported shell")
	}
}

func TestLoadConfig_Provider(t *testing.T) {
	t.Parallel()

	var got config.LoadOptions
	app := NewApp(Dependencies{
		Stdout:    &syncBuffer{},
		Stderr:    &syncBuffer{},
		ConfigDir: "/cfg",
		Config: config.ProviderFunc(func(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
			got = opts
			cfg := config.DefaultConfig()
			cfg.UI.Verbose = true
			cfg.UI.ColorScheme = config.ColorSchemeDark
			return cfg, nil
		}),
	})

	if _, err := app.loadConfig(context.Background(), &rootFlagValues{configPath: "/tmp/x.cue"}); err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if got.ConfigDirPath != "/cfg" || got.ConfigFilePath != "/tmp/x.cue" {
		t.Errorf("provider received %+v", got)
	}
	if !app.verbose || app.scheme != config.ColorSchemeDark {
		t.Errorf("verbose = %v, scheme = %q", app.verbose, app.scheme)
	}
}

func TestLoadConfig_ProviderError(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken config")
	stderr := &syncBuffer{}
	app := NewApp(Dependencies{
		Stdout: &syncBuffer{},
		Stderr: stderr,
		Config: config.ProviderFunc(func(context.Context, config.LoadOptions) (*config.Config, error) {
			return nil, errBroken
		}),
	})

	root := newRootCommand(app)
	root.SetArgs([]string{"config", "show"})
	var exitErr *ExitError
	if err := root.ExecuteContext(context.Background()); !errors.As(err, &exitErr) {
		t.Fatalf("Execute() error = %v, want *ExitError", err)
	}
	if !strings.Contains(stderr.String(), "broken config") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
