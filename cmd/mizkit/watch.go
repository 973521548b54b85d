// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/watch"
)

type watchFlags struct {
	reorderFlags
	debounce time.Duration
}

func newWatchCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &watchFlags{}
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Reorder mission archives whenever they are saved",
		Long: `Watch a directory tree and reorder every mission archive that changes into
its own subdirectory of the target, named after the archive. Saves made in
quick succession are coalesced. Press Ctrl+C to stop.`,
		Example: `  mizkit watch "$HOME/Saved Games/DCS/Missions" --target missions`,
		Args:    cobra.ExactArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, rootFlags, flags, args[0])
		}),
	}
	addReorderFlags(cmd, &flags.reorderFlags)
	cmd.Flags().DurationVar(&flags.debounce, "debounce", time.Second, "quiet period before reordering")
	return cmd
}

func runWatch(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *watchFlags, dir string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	opts, err := resolveBatch(cmd, cfg, &flags.reorderFlags)
	if err != nil {
		return err
	}
	opts.perArchive = true

	var ignore []string
	if pattern, ok := watch.IgnoreDir(dir, opts.target); ok {
		ignore = append(ignore, pattern)
	}

	w, err := watch.New(watch.Config{
		Dir:      dir,
		Ignore:   ignore,
		Debounce: flags.debounce,
		Logger:   app.logger,
		OnChange: func(ctx context.Context, archives []string) error {
			app.printf("%s %d archive(s) changed\n", PathStyle.Render("→"), len(archives))
			if _, err := app.reorderBatch(ctx, cfg, archives, opts); err != nil {
				// Keep watching: the next save may fix the problem.
				app.reportError(err)
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	app.printf("%s Watching %s (Ctrl+C to stop)\n", PathStyle.Render("→"), w.Dir())
	return w.Run(ctx)
}
