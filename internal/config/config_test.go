// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mizkit/mizkit/internal/issue"
	"github.com/mizkit/mizkit/internal/testutil"
	"github.com/mizkit/mizkit/pkg/cueutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, path, []byte(content))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.SkipOptionsFile {
		t.Error("expected skip_options_file to be false by default")
	}
	if cfg.Charset != "iso-8859-15" {
		t.Errorf("expected default charset iso-8859-15, got %q", cfg.Charset)
	}
	if cfg.Jobs != DefaultJobs {
		t.Errorf("expected default jobs %d, got %d", DefaultJobs, cfg.Jobs)
	}
	if !cfg.Journal.Enabled {
		t.Error("expected the journal to be enabled by default")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected default color scheme auto, got %s", cfg.UI.ColorScheme)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("Load() path = %q, want empty", path)
	}
	if cfg.Jobs != DefaultJobs || !cfg.Journal.Enabled {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeConfig(t, dir, `
skip_options_file: true
jobs: 8
folders: last_target: "/repo/missions"
ui: color_scheme: "dark"
`)

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want {
		t.Errorf("Load() path = %q, want %q", path, want)
	}
	if !cfg.SkipOptionsFile || cfg.Jobs != 8 {
		t.Errorf("SkipOptionsFile = %v, Jobs = %d", cfg.SkipOptionsFile, cfg.Jobs)
	}
	if cfg.Folders.LastTarget != "/repo/missions" {
		t.Errorf("LastTarget = %q", cfg.Folders.LastTarget)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("ColorScheme = %q", cfg.UI.ColorScheme)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Charset != "iso-8859-15" || !cfg.Journal.Enabled {
		t.Errorf("defaults lost: charset %q, journal %v", cfg.Charset, cfg.Journal.Enabled)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"jobs too high", "jobs: 100\n", "jobs"},
		{"jobs zero", "jobs: 0\n", "jobs"},
		{"unknown charset", "charset: \"cp1252\"\n", "charset"},
		{"wrong type", "skip_options_file: \"yes\"\n", "skip_options_file"},
		{"not concrete", "jobs: int\n", "jobs"},
		{"unknown key", "colour: \"dark\"\n", "colour"},
		{"syntax error", "jobs: {\n", ConfigFileName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !errors.Is(err, cueutil.ErrValidation) {
				t.Errorf("error does not wrap cueutil.ErrValidation: %v", err)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error is %T, want *issue.ActionableError", err)
			}
			if ae.IssueID != issue.ConfigLoadFailedId || !ae.HasSuggestions() {
				t.Errorf("ActionableError = %+v", ae)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.cue")
	testutil.MustWriteFile(t, custom, []byte("jobs: 3\n"))

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigFilePath: custom})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != custom || cfg.Jobs != 3 {
		t.Errorf("Load() = jobs %d from %q", cfg.Jobs, path)
	}

	_, _, err = Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !strings.Contains(ae.Error(), "config file not found") {
		t.Errorf("Load() missing file error = %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("MIZKIT_JOBS", "5")
	t.Setenv("MIZKIT_FOLDERS_LAST_SOURCE", "/missions")

	dir := t.TempDir()
	writeConfig(t, dir, "jobs: 3\n")

	cfg, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Jobs != 5 {
		t.Errorf("Jobs = %d, want the environment value 5", cfg.Jobs)
	}
	if cfg.Folders.LastSource != "/missions" {
		t.Errorf("LastSource = %q, want /missions", cfg.Folders.LastSource)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SkipOptionsFile = true
	cfg.Charset = "utf-8"
	cfg.Jobs = 4
	cfg.RememberFolders(`C:\Users\pilot\Saved Games\DCS\Missions`, "/repo")
	cfg.Journal.Path = filepath.Join(dir, "runs.db")
	cfg.UI.Verbose = true
	cfg.UI.ColorScheme = ColorSchemeLight

	path := filepath.Join(dir, "nested", ConfigFileName+"."+ConfigFileExt)
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	loaded, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() after SaveTo() error = %v\n%s", err, testutil.MustReadFile(t, path))
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}

func TestGenerateCUE_OmitsEmptyFolders(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	if strings.Contains(out, "folders") {
		t.Errorf("GenerateCUE() wrote an empty folders block:\n%s", out)
	}
	for _, want := range []string{"jobs: 2\n", "charset: \"iso-8859-15\"\n", "\tenabled: true\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateCUE() missing %q:\n%s", want, out)
		}
	}
}

func TestRememberFolders(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RememberFolders("/a", "/b")
	cfg.RememberFolders("", "/c")
	if cfg.Folders.LastSource != "/a" || cfg.Folders.LastTarget != "/c" {
		t.Errorf("Folders = %+v", cfg.Folders)
	}
}

func TestJournalFile(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if got, want := cfg.JournalFile("/cfg"), filepath.Join("/cfg", JournalFileName); got != want {
		t.Errorf("JournalFile() = %q, want %q", got, want)
	}
	cfg.Journal.Path = "/data/runs.db"
	if got := cfg.JournalFile("/cfg"); got != "/data/runs.db" {
		t.Errorf("JournalFile() = %q, want the configured path", got)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on Linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Fatalf("ConfigDir() = %q, %v; want %q", got, err, dir)
	}

	path, created, err := CreateDefaultConfig()
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = %q, %v, %v", path, created, err)
	}
	if _, created, _ := CreateDefaultConfig(); created {
		t.Error("CreateDefaultConfig() overwrote an existing file")
	}

	cfg := DefaultConfig()
	cfg.Jobs = 7
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Provider.Load() error = %v", err)
	}
	if loaded.Jobs != 7 {
		t.Errorf("Jobs = %d after Save(), want 7", loaded.Jobs)
	}

	Reset()
	if configDirOverride != "" {
		t.Error("Reset() did not clear the override")
	}
	if _, err := os.Stat(filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)); err != nil {
		t.Errorf("config file missing: %v", err)
	}
}
