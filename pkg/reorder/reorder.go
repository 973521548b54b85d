// SPDX-License-Identifier: MPL-2.0

package reorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mizkit/mizkit/internal/progress"
	"github.com/mizkit/mizkit/pkg/miz"
)

type (
	// Options tunes a reorder run. The zero value is usable.
	Options struct {
		// SkipOptionsFile leaves the per-user options member alone: it is
		// neither re-encoded nor mirrored.
		SkipOptionsFile bool

		// Progress receives one step per pipeline stage. Nil discards it.
		Progress progress.Reporter

		// Logger receives diagnostics. Nil discards them.
		Logger *log.Logger

		// Charset of the Lua members. Empty means ISO-8859-15.
		Charset miz.Charset

		// TempRoot is where the scratch directory is created. Empty means the
		// system temporary directory.
		TempRoot string

		// Diff, when set, receives a unified diff for every text member that
		// is added or changed in the target.
		Diff io.Writer

		// DryRun computes the result without writing into the target.
		DryRun bool
	}

	// Result lists what a mirror did, as slash-separated paths relative to
	// the target directory.
	Result struct {
		Source    string
		Target    string
		Added     []string
		Updated   []string
		Unchanged []string
	}

	// step is one labelled stage of a pipeline.
	step struct {
		label string
		run   func() error
	}
)

// Files returns every file the run mirrored or found unchanged.
func (r *Result) Files() []string {
	files := make([]string, 0, len(r.Added)+len(r.Updated)+len(r.Unchanged))
	files = append(files, r.Added...)
	files = append(files, r.Updated...)
	return append(files, r.Unchanged...)
}

// Changed reports whether the run added or updated any file.
func (r *Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0
}

// Reorder canonicalizes the archive at source and mirrors its members into
// targetDir. Only new or changed files are written; other files already in
// targetDir are left untouched. Running Reorder twice on the same input is a
// fixed point: the second run reports every file as unchanged.
//
// On failure the scratch directory is kept and its path is part of the error.
func Reorder(ctx context.Context, source, targetDir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	c, err := miz.Open(source, opts.containerOptions()...)
	if err != nil {
		return nil, err
	}

	res := &Result{Source: source, Target: targetDir}
	steps := append(roundTripSteps(c, opts), step{
		label: "Mirroring files",
		run: func() error {
			m := mirror{
				src:    c.ScratchDir(),
				dst:    targetDir,
				skip:   skipped(opts),
				diff:   opts.Diff,
				dryRun: opts.DryRun,
				logger: opts.Logger,
			}
			return m.run(ctx, res)
		},
	})

	if err := runSteps(ctx, "Reordering "+filepath.Base(source), steps, opts); err != nil {
		return nil, closeOnError(c, err)
	}
	if err := c.Close(false); err != nil {
		return nil, err
	}
	opts.Logger.Info("reordered archive", "source", source, "target", targetDir,
		"added", len(res.Added), "updated", len(res.Updated), "unchanged", len(res.Unchanged))
	return res, nil
}

// ReorderArchive canonicalizes the archive at source and writes it to dest,
// which may equal source. Every member captured from source is written back in
// its original order, so running ReorderArchive on its own output produces a
// byte-identical archive.
func ReorderArchive(ctx context.Context, source, dest string, opts Options) error {
	opts = opts.withDefaults()
	c, err := miz.Open(source, opts.containerOptions()...)
	if err != nil {
		return err
	}

	steps := append(roundTripSteps(c, opts), step{
		label: "Writing archive",
		run:   func() error { return c.Zip(dest) },
	})
	if err := runSteps(ctx, "Formatting "+filepath.Base(source), steps, opts); err != nil {
		return closeOnError(c, err)
	}
	if err := c.Close(false); err != nil {
		return err
	}
	opts.Logger.Info("formatted archive", "source", source, "dest", dest)
	return nil
}

// roundTripSteps extracts the archive and decodes then encodes every Lua
// member in place in the scratch directory.
func roundTripSteps(c *miz.Container, opts Options) []step {
	steps := []step{
		{label: "Extracting archive", run: c.Unzip},
		{label: "Decoding mission", run: c.Decode},
	}
	for _, name := range extraMembers(opts) {
		var doc *miz.Document
		steps = append(steps,
			step{label: "Decoding " + name, run: func() error {
				d, err := c.DecodeMember(name)
				doc = d
				return err
			}},
			step{label: "Encoding " + name, run: func() error {
				return c.EncodeMember(name, doc)
			}},
		)
	}
	return append(steps, step{label: "Encoding mission", run: c.Encode})
}

// extraMembers are the Lua members outside the three the container retains.
func extraMembers(opts Options) []string {
	if opts.SkipOptionsFile {
		return []string{miz.MemberWarehouses}
	}
	return []string{miz.MemberWarehouses, miz.MemberOptions}
}

func skipped(opts Options) map[string]bool {
	if opts.SkipOptionsFile {
		return map[string]bool{miz.MemberOptions: true}
	}
	return nil
}

// runSteps reports each step to the progress sink and stops at the first
// failure. The context is only checked between steps.
func runSteps(ctx context.Context, title string, steps []step, opts Options) error {
	opts.Progress.Start(title, len(steps))
	defer opts.Progress.Done()
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts.Progress.SetLabel(s.label)
		if err := s.run(); err != nil {
			return err
		}
		opts.Progress.SetValue(i + 1)
	}
	return nil
}

// closeOnError keeps the scratch directory and returns err, annotated with
// the scratch path when err does not already carry it.
func closeOnError(c *miz.Container, err error) error {
	if closeErr := c.Close(true); closeErr != nil {
		return fmt.Errorf("%w (close: %v)", err, closeErr)
	}
	var mizErr *miz.Error
	if errors.As(err, &mizErr) {
		return err
	}
	return &miz.Error{Op: "reorder", Archive: c.Path(), ScratchDir: c.ScratchDir(), Err: err}
}

func (o Options) withDefaults() Options {
	if o.Progress == nil {
		o.Progress = progress.Nop{}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Charset == "" {
		o.Charset = miz.CharsetLatin9
	}
	return o
}

func (o Options) containerOptions() []miz.Option {
	opts := []miz.Option{miz.WithCharset(o.Charset), miz.WithLogger(o.Logger)}
	if o.TempRoot != "" {
		opts = append(opts, miz.WithTempRoot(o.TempRoot))
	}
	return opts
}
