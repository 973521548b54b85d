// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/config"
	"github.com/mizkit/mizkit/internal/journal"
	"github.com/mizkit/mizkit/internal/progress"
	"github.com/mizkit/mizkit/pkg/reorder"
)

type formatFlags struct {
	output      string
	skipOptions bool
}

func newFormatCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &formatFlags{}
	cmd := &cobra.Command{
		Use:   "format <in.miz>",
		Short: "Rewrite a mission archive with sorted Lua tables",
		Long: `Rewrite every Lua member of the archive in canonical form and write a new
archive. The archive is replaced in place unless --output is given.

Formatting an already formatted archive produces identical bytes.`,
		Example: `  mizkit format op.miz
  mizkit format op.miz -o op-sorted.miz`,
		Args: cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, app, rootFlags, flags, args[0])
		}),
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the formatted archive here instead of replacing the input")
	cmd.Flags().BoolVar(&flags.skipOptions, "skip-options", false, "copy the options member unchanged (default from config)")
	return cmd
}

func runFormat(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *formatFlags, src string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	cs, err := cfg.CharsetValue()
	if err != nil {
		return err
	}
	skipOptions := cfg.SkipOptionsFile
	if cmd.Flags().Changed("skip-options") {
		skipOptions = flags.skipOptions
	}

	dest := flags.output
	if dest == "" {
		dest = src
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	// Hash before the archive may be replaced in place.
	hash, _ := journal.HashFile(absSrc)
	started := time.Now()
	err = reorder.ReorderArchive(ctx, absSrc, absDest, reorder.Options{
		SkipOptionsFile: skipOptions,
		Progress:        progress.NewLogger(app.logger),
		Logger:          app.logger,
		Charset:         cs,
	})
	app.recordFormat(ctx, cfg, &journal.Run{
		Mode: journal.ModeFormat, Source: absSrc, Target: absDest, SourceHash: hash,
		SkipOptions: skipOptions, StartedAt: started, Duration: time.Since(started),
	}, err)
	if err != nil {
		return archiveError(err, "format mission", src)
	}

	app.printf("%s formatted %s → %s\n", SuccessStyle.Render("✓"), src, PathStyle.Render(dest))
	return nil
}

// recordFormat journals a format run. Journal failures only produce a
// warning.
func (a *App) recordFormat(ctx context.Context, cfg *config.Config, run *journal.Run, runErr error) {
	j, err := a.openJournal(cfg)
	if err != nil {
		a.logger.Warn("journal unavailable", "err", err)
		return
	}
	if j == nil {
		return
	}
	defer j.Close()

	run.Status = journal.StatusOK
	if runErr != nil {
		run.Status, run.Error = journal.StatusFailed, runErr.Error()
	}
	a.record(ctx, j, run)
}
