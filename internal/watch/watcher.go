// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs work on mission archives when they change on disk.
//
// A Watcher monitors a directory tree for files matching doublestar globs
// (by default every .miz file) and invokes a callback once the tree has been
// quiet for a debounce period. The mission editor saves an archive through
// several writes and a rename, so events are coalesced and the callback
// receives each changed archive once.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/mizkit/mizkit/pkg/natsort"
)

// DefaultPattern selects mission archives anywhere below the watched directory.
const DefaultPattern = "**/*.miz"

// defaultDebounce is the quiet period before the callback fires.
const defaultDebounce = time.Second

// defaultIgnores are never reported: VCS metadata, archives being written by
// mizkit itself, and editor or OS litter.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.mizkit-*.tmp",
	"**/*~",
	"**/.DS_Store",
	"**/Thumbs.db",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the root directory to watch. Empty means the working directory.
		Dir string

		// Patterns are doublestar globs, relative to Dir, selecting the files
		// that trigger the callback. Empty means DefaultPattern.
		Patterns []string

		// Ignore are extra doublestar globs merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event. Zero or negative
		// values use one second.
		Debounce time.Duration

		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger

		// OnChange receives the absolute paths of changed files that still
		// exist, in natural order. A nil callback is a no-op.
		OnChange func(ctx context.Context, archives []string) error
	}

	// Watcher monitors a directory tree. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		patterns []string
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		dir      string
		started  atomic.Bool
	}
)

// New validates cfg, resolves the directory and registers every directory
// below it with fsnotify.
func New(cfg Config) (*Watcher, error) {
	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		dir = wd
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}
	if info, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", absDir)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}
	if err := validatePatterns(patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		patterns: patterns,
		ignores:  append(append([]string(nil), defaultIgnores...), cfg.Ignore...),
		logger:   logger,
		debounce: debounce,
		dir:      absDir,
	}
	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("watch: close after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks. Callbacks
// never overlap: changes that arrive while one runs are delivered afterwards.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("watch: callback still running, deferring changes")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := make([]string, 0, len(pending))
		for rel := range pending {
			changed = append(changed, rel)
		}
		clear(pending)
		mu.Unlock()

		archives := w.existing(changed)
		if len(archives) == 0 || w.cfg.OnChange == nil {
			return
		}
		w.logger.Info("archives changed", "count", len(archives))
		if err := w.cfg.OnChange(ctx, archives); err != nil {
			w.logger.Error("watch: callback failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("watch: close fsnotify", "err", err)
		}
	}()

	w.logger.Info("watching for changes", "dir", w.dir, "patterns", strings.Join(w.patterns, ","))
	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Rename) {
				continue
			}

			rel, err := filepath.Rel(w.dir, evt.Name)
			if err != nil || w.isIgnored(rel) || !w.matches(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if watcherExhausted(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("watch: fsnotify error", "err", err)
		}
	}
}

// existing turns relative paths into absolute paths of regular files that
// are still present, sorted naturally. A rename away or a delete drops out.
func (w *Watcher) existing(rels []string) []string {
	natsort.Sort(rels)
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		p := filepath.Join(w.dir, rel)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("watch: skipping inaccessible path", "path", path, "err", walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.dir, path)
		if err != nil {
			return nil
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("watch: add new directory", "path", path, "err", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return matchAny(w.patterns, rel)
}

// IgnoreDir returns a glob excluding sub, and everything below it, from a
// watch rooted at dir. The boolean is false when sub lies outside dir.
func IgnoreDir(dir, sub string) (string, bool) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	absSub, err := filepath.Abs(sub)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absDir, absSub)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel) + "/**", true
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return append([]string(nil), defaultIgnores...)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if pat == "" {
			return fmt.Errorf("watch: empty %s pattern", label)
		}
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}
