// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizkit/mizkit/internal/config"
	"github.com/mizkit/mizkit/internal/issue"
	"github.com/mizkit/mizkit/internal/journal"
	"github.com/mizkit/mizkit/internal/progress"
	"github.com/mizkit/mizkit/internal/worker"
	"github.com/mizkit/mizkit/pkg/miz"
	"github.com/mizkit/mizkit/pkg/reorder"
)

// errNoTarget is returned when neither --target nor a remembered target
// directory is available.
var errNoTarget = errors.New("no target directory")

type (
	// reorderFlags holds the flags shared by reorder and watch.
	reorderFlags struct {
		target      string
		skipOptions bool
		diff        bool
		dryRun      bool
		force       bool
		jobs        int
	}

	// batchOptions is the resolved form of reorderFlags for one batch.
	batchOptions struct {
		target      string
		perArchive  bool
		skipOptions bool
		diff        bool
		dryRun      bool
		force       bool
		jobs        int
		charset     miz.Charset
	}
)

func newReorderCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &reorderFlags{}
	cmd := &cobra.Command{
		Use:   "reorder <source.miz>...",
		Short: "Mirror mission archives into directories with sorted Lua tables",
		Long: `Extract each archive, rewrite its Lua members with sorted keys and stable
indentation, and mirror the files into the target directory. Only files whose
content changed are written.

A single source is mirrored into the target directory itself. With several
sources each archive gets its own subdirectory named after the archive.

The target defaults to the one used by the previous successful run.`,
		Example: `  mizkit reorder op.miz --target missions/op
  mizkit reorder *.miz --target missions --jobs 4
  mizkit reorder op.miz --dry-run --diff`,
		Args: cobra.MinimumNArgs(1),
		RunE: runE(app, func(cmd *cobra.Command, args []string) error {
			return runReorder(cmd, app, rootFlags, flags, args)
		}),
	}
	addReorderFlags(cmd, flags)
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "print a unified diff of changed text members")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "report what would change without writing")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "reorder even when the journal shows the source is unchanged")
	return cmd
}

// addReorderFlags registers the flags reorder and watch have in common.
func addReorderFlags(cmd *cobra.Command, flags *reorderFlags) {
	cmd.Flags().StringVarP(&flags.target, "target", "t", "", "target directory (default: the last target used)")
	cmd.Flags().BoolVar(&flags.skipOptions, "skip-options", false, "leave the options member out of the output (default from config)")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", config.DefaultJobs, "number of archives processed at once (default from config)")
}

// resolveBatch merges flags over the config. Flags only win when set
// explicitly on the command line.
func resolveBatch(cmd *cobra.Command, cfg *config.Config, flags *reorderFlags) (batchOptions, error) {
	opts := batchOptions{
		target:      flags.target,
		skipOptions: cfg.SkipOptionsFile,
		diff:        flags.diff,
		dryRun:      flags.dryRun,
		force:       flags.force,
		jobs:        cfg.Jobs,
	}
	if opts.target == "" {
		opts.target = cfg.Folders.LastTarget
	}
	if opts.target == "" {
		return opts, issue.NewErrorContext().
			WithOperation("reorder missions").
			WithSuggestions(
				"Pass the directory to mirror into with --target DIR",
				"Or remember one with 'mizkit config set folders.last_target DIR'").
			Wrap(errNoTarget).
			BuildError()
	}
	if cmd.Flags().Changed("skip-options") {
		opts.skipOptions = flags.skipOptions
	}
	if cmd.Flags().Changed("jobs") {
		if flags.jobs < config.MinJobs || flags.jobs > config.MaxJobs {
			return opts, &config.InvalidJobsError{Value: flags.jobs}
		}
		opts.jobs = flags.jobs
	}
	cs, err := cfg.CharsetValue()
	if err != nil {
		return opts, err
	}
	opts.charset = cs
	return opts, nil
}

func runReorder(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *reorderFlags, sources []string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	opts, err := resolveBatch(cmd, cfg, flags)
	if err != nil {
		return err
	}
	opts.perArchive = len(sources) > 1

	failed, err := app.reorderBatch(ctx, cfg, sources, opts)
	if err != nil {
		return err
	}
	if failed > 0 {
		return &ExitError{Code: 1}
	}
	if !opts.dryRun {
		app.rememberFolders(rootFlags, cfg, sources[0], opts.target)
	}
	return nil
}

// reorderBatch reorders sources on the worker pool. Per-archive failures are
// reported as they are collected and counted; the returned error is reserved
// for failures that prevent the batch from running at all.
func (a *App) reorderBatch(ctx context.Context, cfg *config.Config, sources []string, opts batchOptions) (int, error) {
	dests, err := destinations(sources, opts)
	if err != nil {
		return 0, err
	}

	var j *journal.Journal
	if !opts.dryRun {
		j, err = a.openJournal(cfg)
		if err != nil {
			slog.Warn("journal unavailable, continuing without it", "error", err)
			j = nil
		}
		if j != nil {
			defer func() {
				if closeErr := j.Close(); closeErr != nil {
					slog.Warn("failed to close journal", "error", closeErr)
				}
			}()
		}
	}

	jobs := make([]worker.Job, len(sources))
	for i, src := range sources {
		dest := dests[i]
		jobs[i] = worker.Job{
			Key: src,
			Run: func(ctx context.Context) error {
				return a.reorderOne(ctx, j, src, dest, opts)
			},
		}
	}

	results, err := worker.New(opts.jobs, a.logger).Run(ctx, jobs)
	if results == nil && err != nil {
		return 0, err
	}
	failed := 0
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		failed++
		a.reportError(archiveError(r.Err, "reorder mission", r.Key))
	}
	return failed, nil
}

// destinations maps each source to its target directory and rejects two
// archives that would mirror into the same directory.
func destinations(sources []string, opts batchOptions) ([]string, error) {
	dests := make([]string, len(sources))
	owner := make(map[string]string, len(sources))
	for i, src := range sources {
		dest := opts.target
		if opts.perArchive {
			dest = filepath.Join(opts.target, archiveStem(src))
			if prev, ok := owner[dest]; ok && filepath.Clean(prev) != filepath.Clean(src) {
				return nil, issue.NewErrorContext().
					WithOperation("reorder missions").
					WithResource(dest).
					WithSuggestion("Rename one of the archives or reorder them separately").
					Wrap(fmt.Errorf("%s and %s would both mirror into the same directory", prev, src)).
					BuildError()
			}
			owner[dest] = src
		}
		dests[i] = dest
	}
	return dests, nil
}

// archiveStem returns the archive file name without its extension.
func archiveStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// reorderOne runs the pipeline for one archive and records the run.
func (a *App) reorderOne(ctx context.Context, j *journal.Journal, src, dest string, opts batchOptions) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	var hash string
	if j != nil {
		// A missing source is reported by the pipeline with a better error.
		if h, hashErr := journal.HashFile(absSrc); hashErr == nil {
			hash = h
		}
		if hash != "" && !opts.force {
			unchanged, lookupErr := j.Unchanged(ctx, journal.ModeReorder, absSrc, absDest, hash, opts.skipOptions)
			if lookupErr != nil {
				a.logger.Warn("journal lookup failed", "archive", src, "err", lookupErr)
			}
			if unchanged {
				a.record(ctx, j, &journal.Run{
					Mode: journal.ModeReorder, Source: absSrc, Target: absDest,
					SourceHash: hash, SkipOptions: opts.skipOptions, Status: journal.StatusSkipped,
				})
				a.printf("%s %s unchanged since the last run, skipped (use --force to reorder)\n",
					WarningStyle.Render("-"), src)
				return nil
			}
		}
	}

	var diff bytes.Buffer
	ro := reorder.Options{
		SkipOptionsFile: opts.skipOptions,
		Progress:        progress.NewLogger(a.logger),
		Logger:          a.logger,
		Charset:         opts.charset,
		DryRun:          opts.dryRun,
	}
	if opts.diff {
		ro.Diff = &diff
	}

	started := time.Now()
	if j != nil {
		started = j.Now()
	}
	res, err := reorder.Reorder(ctx, absSrc, absDest, ro)
	a.writeOut(diff.Bytes())

	if j != nil {
		run := &journal.Run{
			Mode: journal.ModeReorder, Source: absSrc, Target: absDest,
			SourceHash: hash, SkipOptions: opts.skipOptions, Status: journal.StatusOK,
			StartedAt: started, Duration: j.Now().Sub(started),
		}
		if err != nil {
			run.Status, run.Error = journal.StatusFailed, err.Error()
		} else {
			run.Added, run.Updated, run.Unchanged = len(res.Added), len(res.Updated), len(res.Unchanged)
			if snapErr := run.Snapshot(res.Files()); snapErr != nil {
				// Without a digest the next run cannot be skipped.
				a.logger.Warn("failed to snapshot target", "archive", src, "err", snapErr)
			}
		}
		a.record(ctx, j, run)
	}
	if err != nil {
		return err
	}

	prefix := ""
	if opts.dryRun {
		prefix = SubtitleStyle.Render("(dry run) ")
	}
	a.printf("%s %s%s → %s: %d added, %d updated, %d unchanged\n",
		SuccessStyle.Render("✓"), prefix, src, PathStyle.Render(dest),
		len(res.Added), len(res.Updated), len(res.Unchanged))
	return nil
}

// record stores run, logging instead of failing the archive when the
// journal cannot be written.
func (a *App) record(ctx context.Context, j *journal.Journal, run *journal.Run) {
	if err := j.Record(ctx, run); err != nil {
		a.logger.Warn("failed to record run", "archive", run.Source, "err", err)
	}
}

// rememberFolders stores the source folder and target of a successful run in
// the config file.
func (a *App) rememberFolders(rootFlags *rootFlagValues, cfg *config.Config, source, target string) {
	absSrc, err := filepath.Abs(source)
	if err != nil {
		return
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return
	}
	before := cfg.Folders
	cfg.RememberFolders(filepath.Dir(absSrc), absTarget)
	if cfg.Folders == before {
		return
	}
	path, err := a.configFile(rootFlags)
	if err == nil {
		err = config.SaveTo(path, cfg)
	}
	if err != nil {
		slog.Warn("failed to remember folders", "error", err)
	}
}
