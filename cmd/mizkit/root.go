// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "mizkit",
		Short: "Reorder and inspect DCS World mission archives",
		Long: TitleStyle.Render("mizkit") + SubtitleStyle.Render(" - Reorder and inspect DCS World mission archives") + `

mizkit unpacks .miz archives, rewrites their Lua tables with sorted keys
and stable indentation, and mirrors the result into a directory so that
mission changes produce small, reviewable diffs under version control.

` + SubtitleStyle.Render("Examples:") + `
  mizkit reorder op.miz --target missions/op      Mirror op.miz into a folder
  mizkit format op.miz                            Rewrite op.miz canonically
  mizkit check *.miz                              Validate archives
  mizkit get op.miz date.Year                     Print one mission value
  mizkit watch ~/Saved\ Games/DCS/Missions        Re-run on every save`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.setupLogging(flags.verbose)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is the platform config directory's mizkit/config.cue)")

	rootCmd.AddCommand(
		newReorderCommand(app, flags),
		newFormatCommand(app, flags),
		newCheckCommand(app, flags),
		newDumpCommand(app, flags),
		newGetCommand(app, flags),
		newWatchCommand(app, flags),
		newHistoryCommand(app, flags),
		newConfigCommand(app, flags),
		newCompletionCommand(app),
	)
	return rootCmd
}

// runE adapts a handler so that failures are rendered once, with
// suggestions, and reach fang as an already-reported ExitError.
func runE(app *App, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		app.reportError(err)
		return &ExitError{Code: 1}
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// handleError prints errors that were not rendered by the command itself,
// such as flag parsing failures.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the CLI and exits with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
